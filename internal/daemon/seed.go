package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/config"
	"github.com/accessdesk/accessdesk/internal/db/models"
)

// defaultPermissions is the initial permission catalog. Resource types
// mirror the platform entities callers authorize against.
var defaultPermissions = []models.Permission{ //nolint:gochecknoglobals
	{Name: "workflow.read", Resource: "workflow", Action: "read"},
	{Name: "workflow.write", Resource: "workflow", Action: "write"},
	{Name: "workflow.delete", Resource: "workflow", Action: "delete"},
	{Name: "report.read", Resource: "report", Action: "read"},
	{Name: "report.write", Resource: "report", Action: "write"},
	{Name: "apikey.read", Resource: "apikey", Action: "read"},
	{Name: "apikey.write", Resource: "apikey", Action: "write"},
}

// seed inserts the initial data when the relevant tables are empty.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.Permission{}).Count(&count)
	if count == 0 {
		for i := range defaultPermissions {
			if err := db.Create(&defaultPermissions[i]).Error; err != nil {
				log.Error().Err(err).Str("permission", defaultPermissions[i].Name).Msg("failed to seed permission")
			}
		}
	}

	db.Model(&models.Role{}).Count(&count)
	if count == 0 {
		admin := models.Role{
			Name:        "admin",
			Scope:       models.RoleScopeSystem,
			Description: "full administrative access",
			IsSystem:    true,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin role")
			return
		}

		var permissions []models.Permission

		db.Find(&permissions)

		for _, perm := range permissions {
			db.Create(&models.RolePermission{RoleID: admin.ID, PermissionID: perm.ID})
		}
	}

	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		// Change the password on first login.
		adminUser := models.User{
			Username: "admin",
			Email:    "admin@localhost",
			Password: models.HashPassword("changeme"),
			Active:   true,
		}
		if err := db.Create(&adminUser).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin user")
			return
		}

		var adminRole models.Role

		if err := db.Where("name = ?", "admin").First(&adminRole).Error; err == nil {
			db.Create(&models.UserRole{UserID: adminUser.ID, RoleID: adminRole.ID})
		}
	}
}
