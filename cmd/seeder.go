package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	authPostgres "github.com/frahmantamala/healthrecord-management/internal/auth/postgres"
	"github.com/frahmantamala/healthrecord-management/internal/authz"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with roles, permissions and sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := gorm.Open(gormpostgres.Open(cfg.Database.Source), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			tables := []string{"audit_logs", "user_roles", "role_permissions", "patient_records", "users", "permissions", "roles"}
			for _, t := range tables {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", t)).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", t, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		catalog := authz.DefaultCatalog()
		authRepo := authPostgres.NewRepository(db)

		for _, role := range catalog.Roles() {
			if _, err := authRepo.EnsureRole(cmd.Context(), role); err != nil {
				log.Fatalf("failed to ensure role %s: %v", role, err)
			}
		}
		fmt.Println("Ensured role set")

		for _, perm := range catalog.AllPermissions() {
			var exists int
			if err := db.Raw("SELECT 1 FROM permissions WHERE name = ?", perm).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, '', now())", perm).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", perm, err)
			}
		}
		fmt.Println("Seeded permission catalog")

		for _, role := range catalog.Roles() {
			var roleID int64
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", string(role)).Row().Scan(&roleID); err != nil {
				log.Fatalf("role not found after insert %s: %v", role, err)
			}

			for _, perm := range catalog.PermissionsForRole(role) {
				var permID int64
				if err := db.Raw("SELECT id FROM permissions WHERE name = ?", perm).Row().Scan(&permID); err != nil {
					log.Fatalf("permission not found after insert %s: %v", perm, err)
				}

				var exists int
				if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", roleID, permID).Row().Scan(&exists); err == nil {
					continue
				}

				if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES (?, ?, now())", roleID, permID).Error; err != nil {
					log.Fatalf("failed to grant permission %s to role %s: %v", perm, role, err)
				}
			}
		}
		fmt.Println("Granted catalog permissions to roles")

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		sampleUsers := []struct {
			Email      string
			Name       string
			Role       authz.RoleName
			Department string
			Location   string
		}{
			{"admin@hospital.test", "Ana Admin", authz.RoleAdmin, "administration", "jakarta"},
			{"doctor@hospital.test", "Dewi Dokter", authz.RoleDoctor, "cardiology", "jakarta"},
			{"nurse@hospital.test", "Nina Perawat", authz.RoleNurse, "cardiology", "jakarta"},
			{"patient@hospital.test", "Putra Pasien", authz.RolePatient, "", "bandung"},
			{"staff@hospital.test", "Sari Staf", authz.RoleStaff, "records", "jakarta"},
		}

		for _, u := range sampleUsers {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; will ensure role\n", u.Email)
			} else {
				if err := db.Exec(
					"INSERT INTO users (email, name, password_hash, department, location, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
					u.Email, u.Name, string(hash), u.Department, u.Location,
				).Error; err != nil {
					log.Fatalf("failed to insert user %s: %v", u.Email, err)
				}
				fmt.Println("Seeded user:", u.Email)
			}

			var userID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup user id for %s: %v", u.Email, err)
			}

			var roleID int64
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", string(u.Role)).Row().Scan(&roleID); err != nil {
				log.Fatalf("failed to lookup role id for %s: %v", u.Role, err)
			}

			if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ?", userID).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO user_roles (user_id, role_id, created_at) VALUES (?, ?, now())", userID, roleID).Error; err != nil {
				log.Fatalf("failed to assign role %s to user %s: %v", u.Role, u.Email, err)
			}
		}
		fmt.Println("Assigned roles to sample users")

		var patientID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "patient@hospital.test").Row().Scan(&patientID); err == nil {
			var exists int
			if err := db.Raw("SELECT 1 FROM patient_records WHERE owner_id = ?", patientID).Row().Scan(&exists); err != nil {
				if err := db.Exec(
					"INSERT INTO patient_records (owner_id, department, attending_id, summary, admission_date, created_at, updated_at) VALUES (?, 'cardiology', NULL, 'routine cardiac assessment', now(), now(), now())",
					patientID,
				).Error; err != nil {
					log.Fatalf("failed to insert sample patient record: %v", err)
				}
				fmt.Println("Seeded sample patient record")
			}
		}

		fmt.Println("Database seeded successfully")
	},
}
