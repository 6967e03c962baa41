package seed

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
)

// permissionCatalog is the full set of capabilities the application
// knows about. Reconciliation adds rows missing from the database and
// never removes or rewrites existing ones.
var permissionCatalog = []models.Permission{
	// Patient management
	{Name: "ViewPatients", Description: "View patient information", Category: "Patients"},
	{Name: "UpdatePatient", Description: "Update patient information", Category: "Patients"},

	// Doctor management
	{Name: "ViewDoctors", Description: "View doctor information", Category: "Doctors"},
	{Name: "UpdateDoctor", Description: "Update doctor information", Category: "Doctors"},
	{Name: "VerifyDoctor", Description: "Verify doctor credentials", Category: "Doctors"},

	// Appointment management
	{Name: "ViewAppointments", Description: "View appointments", Category: "Appointments"},
	{Name: "CreateAppointment", Description: "Create new appointments", Category: "Appointments"},
	{Name: "CancelAppointment", Description: "Cancel appointments", Category: "Appointments"},
	{Name: "RescheduleAppointment", Description: "Reschedule appointments", Category: "Appointments"},
	{Name: "ConfirmAppointment", Description: "Confirm scheduled appointments", Category: "Appointments"},
	{Name: "ViewOwnAppointments", Description: "View own appointments only", Category: "Appointments"},

	// Symptoms and predictions
	{Name: "ViewSymptoms", Description: "View symptom data", Category: "Symptoms"},
	{Name: "CreateSymptomEntry", Description: "Create symptom entries", Category: "Symptoms"},
	{Name: "ViewPredictions", Description: "View AI predictions", Category: "Predictions"},
	{Name: "CreatePrediction", Description: "Generate AI predictions", Category: "Predictions"},

	// Consultations and prescriptions
	{Name: "ViewConsultations", Description: "View consultation records", Category: "Consultations"},
	{Name: "CreateConsultation", Description: "Create consultation records", Category: "Consultations"},
	{Name: "UpdateConsultation", Description: "Update consultation records", Category: "Consultations"},
	{Name: "ViewPrescriptions", Description: "View prescriptions", Category: "Prescriptions"},
	{Name: "CreatePrescription", Description: "Create prescriptions", Category: "Prescriptions"},

	// Notifications
	{Name: "ViewNotifications", Description: "View notification logs", Category: "Notifications"},
	{Name: "ManageNotifications", Description: "Manage and retry notifications", Category: "Notifications"},

	// System administration
	{Name: "ViewUsers", Description: "View all users", Category: "Admin"},
	{Name: "ManageUsers", Description: "Create, update, delete users", Category: "Admin"},
	{Name: "ManageRoles", Description: "Manage roles and permissions", Category: "Admin"},
}

var roleCatalog = []models.RoleRecord{
	{Name: models.RoleAdmin, Description: "System administrator with full access"},
	{Name: models.RoleDoctor, Description: "Medical doctor with patient consultation access"},
	{Name: models.RolePatient, Description: "Patient with limited access to own records"},
}

var doctorGrants = []string{
	"ViewPatients", "UpdatePatient",
	"ViewDoctors", "UpdateDoctor",
	"ViewAppointments", "CancelAppointment", "RescheduleAppointment",
	"ConfirmAppointment", "ViewOwnAppointments",
	"ViewSymptoms", "ViewPredictions",
	"ViewConsultations", "CreateConsultation", "UpdateConsultation",
	"ViewPrescriptions", "CreatePrescription",
	"ViewNotifications",
}

var patientGrants = []string{
	"ViewDoctors",
	"ViewOwnAppointments", "CreateAppointment",
	"CancelAppointment", "RescheduleAppointment",
	"CreateSymptomEntry", "ViewSymptoms",
	"ViewPredictions", "CreatePrediction",
	"ViewConsultations", "ViewPrescriptions",
}

// DefaultAdmin describes the bootstrap admin account created when no
// admin user exists yet.
type DefaultAdmin struct {
	Email    string
	Password string
}

// PermissionsAndRoles reconciles the permission catalog, the three
// roles and their grants, and the bootstrap admin account. The routine
// is idempotent: re-running it upserts missing rows and duplicates
// nothing, so it is safe to call on every startup.
func PermissionsAndRoles(db *gorm.DB, admin DefaultAdmin, log zerolog.Logger) error {
	for i := range permissionCatalog {
		p := permissionCatalog[i]
		if err := db.Where(models.Permission{Name: p.Name}).
			Attrs(models.Permission{Description: p.Description, Category: p.Category}).
			FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
	}

	for i := range roleCatalog {
		r := roleCatalog[i]
		if err := db.Where(models.RoleRecord{Name: r.Name}).
			Attrs(models.RoleRecord{Description: r.Description}).
			FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}

	if err := grantAll(db, models.RoleAdmin); err != nil {
		return err
	}
	if err := grant(db, models.RoleDoctor, doctorGrants); err != nil {
		return err
	}
	if err := grant(db, models.RolePatient, patientGrants); err != nil {
		return err
	}

	if err := ensureDefaultAdmin(db, admin, log); err != nil {
		return err
	}

	log.Info().Int("permissions", len(permissionCatalog)).Msg("permission catalog reconciled")
	return nil
}

func grantAll(db *gorm.DB, role models.Role) error {
	names := make([]string, len(permissionCatalog))
	for i, p := range permissionCatalog {
		names[i] = p.Name
	}
	return grant(db, role, names)
}

func grant(db *gorm.DB, role models.Role, permissionNames []string) error {
	var roleRow models.RoleRecord
	if err := db.First(&roleRow, "name = ?", role).Error; err != nil {
		return fmt.Errorf("load role %s: %w", role, err)
	}

	var permissions []models.Permission
	if err := db.Where("name IN ?", permissionNames).Find(&permissions).Error; err != nil {
		return fmt.Errorf("load permissions for %s: %w", role, err)
	}

	for _, p := range permissions {
		link := models.RolePermission{RoleID: roleRow.ID, PermissionID: p.ID}
		if err := db.Where(models.RolePermission{RoleID: roleRow.ID, PermissionID: p.ID}).
			FirstOrCreate(&link).Error; err != nil {
			return fmt.Errorf("grant %s to %s: %w", p.Name, role, err)
		}
	}
	return nil
}

func ensureDefaultAdmin(db *gorm.DB, admin DefaultAdmin, log zerolog.Logger) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	user := models.User{Email: admin.Email, Role: models.RoleAdmin, IsActive: true}
	if err := user.SetPassword(admin.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	log.Info().Str("email", admin.Email).Msg("default admin account created")
	return nil
}

// RolePermissions returns the permission names granted to a role, for
// the authorization middleware.
func RolePermissions(db *gorm.DB, role models.Role) ([]string, error) {
	var names []string
	err := db.Model(&models.RolePermission{}).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN role_records ON role_records.id = role_permissions.role_id").
		Where("role_records.name = ?", role).
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
