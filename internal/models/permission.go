package models

// Permission is one named capability in the authorization catalog.
type Permission struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	Category    string `gorm:"size:100" json:"category,omitempty"`
}

// RoleRecord is the persisted role catalog backing the Role enum on User.
// Named RoleRecord to keep the enum type name free.
type RoleRecord struct {
	BaseModel
	Name        Role   `gorm:"uniqueIndex;size:20;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`

	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"-"`
}

// RolePermission grants a permission to a role.
type RolePermission struct {
	BaseModel
	RoleID       string `gorm:"size:36;not null;uniqueIndex:idx_role_permission" json:"roleId"`
	PermissionID string `gorm:"size:36;not null;uniqueIndex:idx_role_permission" json:"permissionId"`

	Permission Permission `gorm:"foreignKey:PermissionID" json:"permission"`
}
