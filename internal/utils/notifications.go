package utils

import (
	"fmt"
	"log"
	"os"

	"velora_back_end/internal/models"
)

// SendOrderStatusEmail envoie un email de notification de changement de statut
func SendOrderStatusEmail(order models.Order, userEmail string, newStatus string) error {
	subject := getStatusEmailSubject(newStatus)
	html := generateStatusEmailHTML(order, newStatus)

	err := SendConfirmationEmail(userEmail, subject, html, nil)
	if err != nil {
		log.Printf("❌ Erreur envoi email statut: %v", err)
		return err
	}

	log.Printf("📧 Email de statut envoyé: %s → %s", newStatus, userEmail)
	return nil
}

func getStatusEmailSubject(status string) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "✅ Commande confirmée - Velora"
	case models.OrderStatusProcessing:
		return "🔧 Votre commande est en préparation - Velora"
	case models.OrderStatusShipped:
		return "📦 Votre commande a été expédiée - Velora"
	case models.OrderStatusDelivered:
		return "🎉 Votre commande a été livrée - Velora"
	case models.OrderStatusCancelled:
		return "❌ Commande annulée - Velora"
	default:
		return "📋 Mise à jour de votre commande - Velora"
	}
}

func generateStatusEmailHTML(order models.Order, status string) string {
	statusMessage := getStatusMessage(status)
	statusIcon := getStatusIcon(status)
	statusColor := getStatusColor(status)
	frontURL := os.Getenv("FRONTEND_URL")

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Mise à jour de commande</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: 600;">%s Velora</h1>
                            <p style="margin: 10px 0 0 0; color: #ffffff; font-size: 16px; opacity: 0.9;">Mise à jour de votre commande</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px 30px 0 30px; text-align: center;">
                            <div style="display: inline-block; padding: 12px 24px; background-color: %s; color: #ffffff; border-radius: 25px; font-weight: 600; font-size: 14px; text-transform: uppercase;">%s %s</div>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">%s</p>
                            <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f8f9fa; border-radius: 8px; margin: 20px 0;">
                                <tr>
                                    <td style="padding: 20px;">
                                        <h3 style="margin: 0 0 15px 0; color: #333333; font-size: 18px; font-weight: 600;">📦 Détails de la commande</h3>
                                        <table role="presentation" style="width: 100%%; border-collapse: collapse;">
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;"><strong style="color: #333333;">Numéro de commande:</strong></td>
                                                <td style="padding: 8px 0; color: #333333; font-size: 14px; text-align: right;">%s</td>
                                            </tr>
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;"><strong style="color: #333333;">Montant total:</strong></td>
                                                <td style="padding: 8px 0; color: #333333; font-size: 14px; text-align: right; font-weight: 600;">%s</td>
                                            </tr>
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;"><strong style="color: #333333;">Statut:</strong></td>
                                                <td style="padding: 8px 0; color: %s; font-size: 14px; text-align: right; font-weight: 600;">%s</td>
                                            </tr>
                                        </table>
                                    </td>
                                </tr>
                            </table>
                            <table role="presentation" style="width: 100%%; margin: 30px 0;">
                                <tr>
                                    <td style="text-align: center;">
                                        <a href="%s/orders" style="display: inline-block; padding: 14px 32px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600; font-size: 15px;">Voir ma commande</a>
                                    </td>
                                </tr>
                            </table>
                            <p style="margin: 0; color: #999999; font-size: 13px; text-align: center;">L'équipe Velora</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`, statusIcon, statusColor, statusIcon, status, statusMessage, order.OrderNumber, FormatCents(order.TotalCents), statusColor, status, frontURL)
}

func getStatusMessage(status string) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "Votre paiement a été reçu, votre commande est confirmée et sera bientôt préparée."
	case models.OrderStatusProcessing:
		return "Votre commande est en cours de préparation dans notre entrepôt."
	case models.OrderStatusShipped:
		return "Bonne nouvelle ! Votre commande a été remise au transporteur."
	case models.OrderStatusDelivered:
		return "Votre commande a été livrée. Nous espérons qu'elle vous plaira !"
	case models.OrderStatusCancelled:
		return "Votre commande a été annulée. Le stock a été remis en vente et tout paiement sera remboursé."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func getStatusIcon(status string) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "✅"
	case models.OrderStatusProcessing:
		return "🔧"
	case models.OrderStatusShipped:
		return "📦"
	case models.OrderStatusDelivered:
		return "🎉"
	case models.OrderStatusCancelled:
		return "❌"
	default:
		return "📋"
	}
}

func getStatusColor(status string) string {
	switch status {
	case models.OrderStatusConfirmed, models.OrderStatusDelivered:
		return "#28a745"
	case models.OrderStatusProcessing:
		return "#17a2b8"
	case models.OrderStatusShipped:
		return "#007bff"
	case models.OrderStatusCancelled:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

// SendWelcomeEmail envoie un email de bienvenue à l'inscription
func SendWelcomeEmail(userEmail, userName string) error {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 30px; border-radius: 10px;">
		<h2 style="color: #333;">Bienvenue chez Velora, %s !</h2>
		<p>Votre compte a bien été créé. Bonnes découvertes dans notre catalogue.</p>
		<p style="margin-top: 30px; color: #555;">L'équipe Velora</p>
	</div>
</body>
</html>`, userName)

	return SendConfirmationEmail(userEmail, "🎉 Bienvenue chez Velora !", html, nil)
}

// SendRefundApprovedEmail prévient le client que son remboursement est parti
func SendRefundApprovedEmail(userEmail, orderNumber string, amountCents int64) error {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 30px; border-radius: 10px;">
		<h2 style="color: #28a745;">💰 Remboursement effectué</h2>
		<p>Votre demande de remboursement pour la commande <strong>%s</strong> a été approuvée.</p>
		<p>Montant remboursé : <strong>%s</strong></p>
		<p>Le remboursement apparaîtra sur votre compte sous 5 à 10 jours ouvrés.</p>
		<p style="margin-top: 30px; color: #555;">L'équipe Velora</p>
	</div>
</body>
</html>`, orderNumber, FormatCents(amountCents))

	return SendConfirmationEmail(userEmail, "💰 Remboursement effectué - Velora", html, nil)
}

// SendRefundRejectedEmail prévient le client du rejet de sa demande
func SendRefundRejectedEmail(userEmail, orderNumber, reason string) error {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 30px; border-radius: 10px;">
		<h2 style="color: #dc3545;">Demande de remboursement refusée</h2>
		<p>Votre demande de remboursement pour la commande <strong>%s</strong> n'a pas pu être acceptée.</p>
		<p>Motif : %s</p>
		<p>Contactez notre support si vous pensez qu'il s'agit d'une erreur.</p>
		<p style="margin-top: 30px; color: #555;">L'équipe Velora</p>
	</div>
</body>
</html>`, orderNumber, reason)

	return SendConfirmationEmail(userEmail, "Demande de remboursement - Velora", html, nil)
}
