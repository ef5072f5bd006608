package utils

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// Actions d'audit prédéfinies
const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"

	ActionOrderUpdate = "order.update"
	ActionOrderCancel = "order.cancel"
	ActionOrderRefund = "order.refund"

	ActionStockUpdate = "stock.update"

	ActionCouponCreate = "coupon.create"
	ActionCouponUpdate = "coupon.update"
	ActionCouponDelete = "coupon.delete"

	ActionLoginSuccess = "auth.login_success"
	ActionLoginFailed  = "auth.login_failed"

	ActionUserRoleUpdate = "user.role_update"
	ActionUserDeactivate = "user.deactivate"
)

// LogAction enregistre une action dans les logs d'audit,
// sans bloquer la requête
func LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("email")
	ip := c.ClientIP()
	agent := c.GetHeader("User-Agent")

	go func() {
		if err := writeAuditLog(userID, userEmail, ip, agent, action, resource, resourceID, oldValue, newValue, true, ""); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogFailedAction enregistre une action échouée dans les logs d'audit
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("email")
	ip := c.ClientIP()
	agent := c.GetHeader("User-Agent")

	go func() {
		if err := writeAuditLog(userID, userEmail, ip, agent, action, resource, resourceID, nil, nil, false, errorMsg); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

func writeAuditLog(userID, userEmail, ip, agent, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) error {
	usersSession, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	var oldValueStr, newValueStr string
	if oldValue != nil {
		if b, err := json.Marshal(oldValue); err == nil {
			oldValueStr = string(b)
		}
	}
	if newValue != nil {
		if b, err := json.Marshal(newValue); err == nil {
			newValueStr = string(b)
		}
	}

	entry := models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     userID,
		UserEmail:  userEmail,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   oldValueStr,
		NewValue:   newValueStr,
		IPAddress:  ip,
		UserAgent:  agent,
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return usersSession.Query(query,
		entry.ID, entry.UserID, entry.UserEmail, entry.Action,
		entry.Resource, entry.ResourceID, entry.OldValue, entry.NewValue,
		entry.IPAddress, entry.UserAgent, entry.Success, entry.ErrorMsg,
		entry.Timestamp,
	).Exec()
}
