package command

import "strings"

// Topic holds the static help content for one chat command.
type Topic struct {
	Name    string
	Summary string
	Usage   string
	Example string
}

// helpTopics is keyed by the command name the user asked about.
var helpTopics = map[string]Topic{
	"receita": {
		Name:    "receita",
		Summary: "Registra uma receita",
		Usage:   "recebi <valor> de <descrição> em <categoria>",
		Example: "recebi 1000 de salário em trabalho",
	},
	"despesa": {
		Name:    "despesa",
		Summary: "Registra uma despesa",
		Usage:   "gastei <valor> em <categoria>",
		Example: "gastei 50 em almoço",
	},
	"saldo": {
		Name:    "saldo",
		Summary: "Mostra o saldo atual",
		Usage:   "saldo",
		Example: "saldo",
	},
	"extrato": {
		Name:    "extrato",
		Summary: "Lista as últimas 10 transações",
		Usage:   "extrato",
		Example: "extrato",
	},
	"relatorio": {
		Name:    "relatorio",
		Summary: "Relatório por período",
		Usage:   "relatório <diário|semanal|mensal|anual>",
		Example: "relatório mensal",
	},
	"categorias": {
		Name:    "categorias",
		Summary: "Lista suas categorias de receitas e despesas",
		Usage:   "categorias",
		Example: "categorias",
	},
	"categoria": {
		Name:    "categoria",
		Summary: "Relatório detalhado de uma categoria",
		Usage:   "categoria <nome>",
		Example: "categoria mercado",
	},
	"editar": {
		Name:    "editar",
		Summary: "Edita uma transação pelo identificador",
		Usage:   "editar <id> <valor|descrição|categoria>",
		Example: "editar a1b2c3d4 55,90",
	},
	"conselhos": {
		Name:    "conselhos",
		Summary: "Análise financeira personalizada",
		Usage:   "conselhos",
		Example: "conselhos",
	},
}

// HelpTopic looks up static help content by command name.
func HelpTopic(name string) (Topic, bool) {
	t, ok := helpTopics[normalizeTopic(name)]
	return t, ok
}

// AllHelpTopics returns the topics in a fixed presentation order.
func AllHelpTopics() []Topic {
	names := []string{"receita", "despesa", "saldo", "extrato", "relatorio", "categorias", "categoria", "editar", "conselhos"}
	topics := make([]Topic, 0, len(names))
	for _, n := range names {
		topics = append(topics, helpTopics[n])
	}
	return topics
}

func normalizeTopic(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	// Accent-insensitive lookup for the common spellings.
	replacer := strings.NewReplacer("á", "a", "ó", "o", "ã", "a", "é", "e", "í", "i")
	return replacer.Replace(name)
}
