package seed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medipredict-server/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	admin := DefaultAdmin{Email: "admin@medipredict.test", Password: "changeme123"}

	if err := PermissionsAndRoles(db, admin, zerolog.Nop()); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	permissions := countRows(t, db, &models.Permission{})
	roles := countRows(t, db, &models.RoleRecord{})
	grants := countRows(t, db, &models.RolePermission{})
	users := countRows(t, db, &models.User{})

	if permissions == 0 || roles != 3 || grants == 0 {
		t.Fatalf("unexpected catalog after seed: %d permissions, %d roles, %d grants", permissions, roles, grants)
	}
	if users != 1 {
		t.Fatalf("expected the bootstrap admin user, got %d users", users)
	}

	// Re-running must not duplicate anything.
	if err := PermissionsAndRoles(db, admin, zerolog.Nop()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	if n := countRows(t, db, &models.Permission{}); n != permissions {
		t.Errorf("permissions after reseed = %d, want %d", n, permissions)
	}
	if n := countRows(t, db, &models.RolePermission{}); n != grants {
		t.Errorf("grants after reseed = %d, want %d", n, grants)
	}
	if n := countRows(t, db, &models.User{}); n != 1 {
		t.Errorf("users after reseed = %d, want 1", n)
	}
}

func TestSeedAddsMissingPermissions(t *testing.T) {
	db := openTestDB(t)

	if err := PermissionsAndRoles(db, DefaultAdmin{}, zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Simulate an older deployment missing a later catalog entry.
	if err := db.Where("name = ?", "ConfirmAppointment").Delete(&models.Permission{}).Error; err != nil {
		t.Fatalf("delete permission: %v", err)
	}

	if err := PermissionsAndRoles(db, DefaultAdmin{}, zerolog.Nop()); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var restored models.Permission
	if err := db.First(&restored, "name = ?", "ConfirmAppointment").Error; err != nil {
		t.Fatalf("missing permission was not restored: %v", err)
	}
}

func TestRolePermissions(t *testing.T) {
	db := openTestDB(t)
	if err := PermissionsAndRoles(db, DefaultAdmin{}, zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	patientPerms, err := RolePermissions(db, models.RolePatient)
	if err != nil {
		t.Fatalf("role permissions: %v", err)
	}

	has := func(name string) bool {
		for _, p := range patientPerms {
			if p == name {
				return true
			}
		}
		return false
	}
	if !has("CreateAppointment") {
		t.Error("patient should be able to create appointments")
	}
	if has("CreateConsultation") {
		t.Error("patient should not be able to create consultations")
	}
}
