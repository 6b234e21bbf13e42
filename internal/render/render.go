// Package render maps dispatcher payloads to WhatsApp message strings.
// Templates live here only; the dispatcher stays text-free so both
// stages are testable on their own.
package render

import (
	"fmt"
	"strings"

	"fincontrol/internal/command"
	"fincontrol/internal/money"
	"fincontrol/internal/repo"
	"fincontrol/internal/report"
)

// Message renders the chat reply for a dispatched payload.
func Message(p command.Payload) string {
	switch v := p.(type) {
	case command.TransactionSaved:
		return transactionSaved(v.Transaction)
	case command.TransactionUpdated:
		return transactionUpdated(v.Transaction)
	case command.BalanceSummary:
		return balance(v)
	case command.EmptyBalance:
		return "💰 *Resumo Financeiro*\n\nVocê ainda não tem transações registradas.\n💰 *Saldo atual:* R$ 0,00"
	case command.Statement:
		return statement(v.Transactions)
	case command.EmptyStatement:
		return "Nenhuma transação encontrada"
	case command.PeriodReport:
		return periodReport(v)
	case command.EmptyReport:
		return fmt.Sprintf("📊 *Relatório Financeiro - %s*\n\nNenhuma transação encontrada no período", v.Period.LabelPT())
	case command.CategoryReport:
		return categoryReport(v)
	case command.EmptyCategory:
		return fmt.Sprintf("❌ Nenhuma transação encontrada na categoria '%s'", v.Category)
	case command.CategoryList:
		return categoryList(v)
	case command.Advice:
		return v.Text
	case command.Help:
		return help(v)
	default:
		return "Não entendi, envie *ajuda* para ver os comandos disponíveis"
	}
}

func transactionSaved(t repo.Transaction) string {
	tipo, emoji := "Despesa", "📤"
	if t.Kind == repo.KindIncome {
		tipo, emoji = "Receita", "📥"
	}
	return fmt.Sprintf(
		"%s *%s registrada com sucesso!*\n\n"+
			"💰 *Valor:* %s\n"+
			"📝 *Descrição:* %s\n"+
			"🏷️ *Categoria:* %s\n"+
			"📅 *Data:* %s\n"+
			"🆔 *ID:* %s",
		emoji, tipo,
		money.FormatBRL(money.Abs(t.AmountCents)),
		t.Description,
		t.Category,
		money.FormatDateTime(t.Date),
		shortID(t.ID),
	)
}

func transactionUpdated(t repo.Transaction) string {
	tipo := "Receita"
	if t.Kind == repo.KindExpense {
		tipo = "Despesa"
	}
	return fmt.Sprintf(
		"✅ %s atualizada!\n\n"+
			"💰 Valor: %s\n"+
			"📝 Descrição: %s\n"+
			"🏷️ Categoria: %s",
		tipo,
		money.FormatBRL(money.Abs(t.AmountCents)),
		t.Description,
		t.Category,
	)
}

func balance(v command.BalanceSummary) string {
	emoji, status := "📈", "✅ Positivo"
	switch v.Trend {
	case report.TrendDown:
		emoji, status = "📉", "❌ Negativo"
	case report.TrendFlat:
		emoji, status = "📊", "⚖️ Neutro"
	}
	return fmt.Sprintf(
		"💰 *Resumo Financeiro*\n\n"+
			"%s *Saldo atual:* %s\n"+
			"%s",
		emoji, money.FormatBRL(money.Abs(v.BalanceCents)), status,
	)
}

func statement(txs []repo.Transaction) string {
	var b strings.Builder
	b.WriteString("📋 *Últimas Transações:*\n\n")
	for _, t := range txs {
		emoji := "📤"
		if t.Kind == repo.KindIncome {
			emoji = "📥"
		}
		fmt.Fprintf(&b, "%s *%s*\n", emoji, t.Category)
		fmt.Fprintf(&b, "💰 %s\n", money.FormatBRL(money.Abs(t.AmountCents)))
		fmt.Fprintf(&b, "📝 %s\n", t.Description)
		fmt.Fprintf(&b, "📅 %s\n", money.FormatDate(t.Date))
		fmt.Fprintf(&b, "🆔 %s\n", shortID(t.ID))
		b.WriteString("➖➖➖➖➖➖➖➖\n\n")
	}
	return strings.TrimSpace(b.String())
}

func periodReport(v command.PeriodReport) string {
	s := v.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Relatório Financeiro - %s*\n\n", v.Period.LabelPT())
	fmt.Fprintf(&b, "📥 *Receitas:* %s\n", money.FormatBRL(s.IncomeCents))
	fmt.Fprintf(&b, "📤 *Despesas:* %s\n", money.FormatBRL(s.ExpenseCents))
	fmt.Fprintf(&b, "💰 *Saldo:* %s\n\n", money.FormatBRL(s.BalanceCents))
	b.WriteString("*Top Categorias (Despesas):*\n")
	for _, cat := range s.TopCategories {
		percent := 0.0
		if s.ExpenseCents > 0 {
			percent = float64(cat.AmountCents) / float64(s.ExpenseCents) * 100
		}
		fmt.Fprintf(&b, "🏷️ %s: %s (%.1f%%)\n", cat.Name, money.FormatBRL(cat.AmountCents), percent)
	}
	return strings.TrimSpace(b.String())
}

func categoryReport(v command.CategoryReport) string {
	s := v.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Relatório da Categoria: %s*\n\n", v.Category)
	b.WriteString("💰 *Resumo:*\n")
	fmt.Fprintf(&b, "📈 Total gasto: %s\n", money.FormatBRL(s.TotalCents))
	fmt.Fprintf(&b, "📊 Média por transação: %s\n", money.FormatBRL(s.AvgCents))
	fmt.Fprintf(&b, "🔄 Última transação: %s\n\n", money.FormatBRL(s.LastAmountCents))
	if len(s.Months) > 0 {
		b.WriteString("📅 *Gastos por Mês:*\n")
		for _, m := range s.Months {
			fmt.Fprintf(&b, "• %s: %s\n", m.Label, money.FormatBRL(m.AmountCents))
		}
	}
	return strings.TrimSpace(b.String())
}

func categoryList(v command.CategoryList) string {
	var b strings.Builder
	b.WriteString("📊 *Suas Categorias*\n\n")
	b.WriteString("*Receitas:*\n")
	for _, c := range v.Income {
		fmt.Fprintf(&b, "📥 %s\n", c.Name)
	}
	b.WriteString("\n*Despesas:*\n")
	for _, c := range v.Expense {
		fmt.Fprintf(&b, "📤 %s\n", c.Name)
	}
	return strings.TrimSpace(b.String())
}

func help(v command.Help) string {
	if v.Details {
		topic, ok := command.HelpTopic(v.Topic)
		if !ok {
			return "❓ Comando não encontrado. Envie *ajuda* para ver a lista completa."
		}
		return fmt.Sprintf(
			"📖 *Ajuda: %s*\n\n"+
				"%s\n\n"+
				"*Como usar:* %s\n"+
				"*Exemplo:* %s",
			topic.Name, topic.Summary, topic.Usage, topic.Example,
		)
	}

	var b strings.Builder
	b.WriteString("🤖 *FinControl - Comandos disponíveis:*\n\n")
	for _, topic := range command.AllHelpTopics() {
		fmt.Fprintf(&b, "• *%s* — %s\n", topic.Name, topic.Summary)
	}
	b.WriteString("\nEnvie *ajuda <comando>* para detalhes de um comando.")
	return b.String()
}

// shortID truncates an identifier to the 8-character form shown in
// chat replies.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
