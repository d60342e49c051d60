package useCases

import (
	"fmt"
	"strings"

	"github.com/segundavia/boleto_bot/internal/domain"
)

const (
	msgMenu = "Olá! Sou o assistente de segunda via de boleto.\n\n" +
		"1 - Segunda via de boleto\n" +
		"2 - Falar com atendimento\n" +
		"3 - Acessar o site\n\n" +
		"Para remover seus dados, envie \"apagar meus dados\"."

	msgAskIdentifier = "Para localizar seus boletos, envie seu CPF ou CNPJ (pode digitar com ou sem pontuação)."

	msgInvalidIdentifier = "Não consegui validar esse documento. Confira os dígitos e envie novamente o CPF ou CNPJ."

	msgRateLimited = "Você fez muitas consultas em pouco tempo. Aguarde alguns minutos e tente novamente."

	msgGenericError = "Não foi possível concluir sua solicitação agora. Tente novamente mais tarde."

	msgFormatMenu = "Como você prefere receber a segunda via?\n" +
		"1 - Boleto em PDF\n" +
		"2 - Código de barras\n" +
		"3 - Linha digitável\n" +
		"0 - Voltar"

	msgInvalidFormat = "Opção inválida.\n\n" + msgFormatMenu

	msgPDFUnavailable = "O boleto em PDF não está disponível no momento, mas você ainda pode pedir o código de barras ou a linha digitável. Envie \"menu\" para recomeçar."

	msgDataUnavailable = "Os dados de pagamento não estão disponíveis no momento. Tente novamente mais tarde."

	msgDataDeleted = "Prontinho! Seus dados de sessão foram removidos. Guardamos apenas registros de auditoria sem o seu documento."

	msgSitePrefix = "Você pode acessar o site aqui: "
)

func msgNoBills(masked string) string {
	return fmt.Sprintf("Não encontramos boletos em aberto para o documento %s.", masked)
}

// billListText renders the numbered selection list.
func billListText(bills []domain.Bill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Encontramos %d boletos em aberto:\n", len(bills))
	for i, bill := range bills {
		fmt.Fprintf(&b, "%d - venc. %s - R$ %.2f (nosso número %s)\n",
			i+1, bill.DueDate.Format("02/01/2006"), bill.Amount, bill.OurNumber)
	}
	b.WriteString("\nResponda com o número do boleto desejado.")
	return b.String()
}

func billSummaryText(bill domain.Bill) string {
	return fmt.Sprintf("Encontramos 1 boleto em aberto: venc. %s - R$ %.2f (nosso número %s).\n\n%s",
		bill.DueDate.Format("02/01/2006"), bill.Amount, bill.OurNumber, msgFormatMenu)
}

func duplicateDataText(label, value string, dup *domain.DuplicateData) string {
	return fmt.Sprintf("%s do boleto (venc. %s - R$ %.2f):\n\n%s",
		label, dup.DueDate.Format("02/01/2006"), dup.Amount, value)
}
