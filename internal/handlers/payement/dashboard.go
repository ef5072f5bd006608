package payement

import (
	"log"
	"net/http"

	"velora_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats retourne les statistiques du dashboard admin :
// commandes (via le workflow), produits et utilisateurs
func GetDashboardStats(c *gin.Context) {
	orderStats, err := workflow.Stats(c.Request.Context(), "")
	if err != nil {
		log.Printf("❌ Erreur stats commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul statistiques"})
		return
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var totalProducts int
	var lowStockProducts int
	var outOfStockProducts int

	prodIter := productsSession.Query("SELECT stock, low_stock_threshold FROM products").Iter()
	var stock, threshold int

	for prodIter.Scan(&stock, &threshold) {
		totalProducts++
		if stock == 0 {
			outOfStockProducts++
		} else if stock <= threshold {
			lowStockProducts++
		}
	}

	if err := prodIter.Close(); err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var totalUsers int
	if err := usersSession.Query("SELECT COUNT(*) FROM users").Scan(&totalUsers); err != nil {
		log.Printf("❌ Erreur comptage utilisateurs: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": gin.H{
			"total":         orderStats.Total,
			"by_status":     orderStats.ByStatus,
			"revenue_cents": orderStats.RevenueCents,
		},
		"products": gin.H{
			"total":        totalProducts,
			"low_stock":    lowStockProducts,
			"out_of_stock": outOfStockProducts,
		},
		"users": gin.H{
			"total": totalUsers,
		},
	})
}
