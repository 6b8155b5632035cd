package store

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleView is a role with the permissions currently attached to it.
type RoleView struct {
	Name        models.Role             `json:"name"`
	Description string                  `json:"description,omitempty"`
	Permissions []models.PermissionName `json:"permissions"`
}

// UserGrant is a direct permission grant joined with the permission name.
type UserGrant struct {
	ID         uint                  `json:"id"`
	UserID     string                `json:"userId"`
	Permission models.PermissionName `json:"permission"`
	AcademyID  *string               `json:"academyId,omitempty"`
	GrantedBy  string                `json:"grantedBy"`
}

var roleDescriptions = map[models.Role]string{
	models.RoleUser:       "Registered account without academy privileges",
	models.RoleAdmin:      "Manages an academy and its records",
	models.RoleSuperAdmin: "Platform administrator, bypasses permission checks",
	models.RoleStudent:    "Enrolled learner",
	models.RoleTeacher:    "Teaching staff",
}

// SeedRBAC inserts missing roles, permissions and default role permissions.
// Existing rows are left untouched, so grants edited at runtime survive restarts.
func (s *Store) SeedRBAC(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		noop := clause.OnConflict{DoNothing: true}
		for _, r := range models.AllRoles {
			if err := tx.Clauses(noop).Create(&models.RoleRecord{Name: r, Description: roleDescriptions[r]}).Error; err != nil {
				return err
			}
		}
		for _, p := range models.AllPermissions {
			if err := tx.Clauses(noop).Create(&models.PermissionRecord{Name: p}).Error; err != nil {
				return err
			}
		}

		// only seed defaults into an empty mapping table
		var existing int64
		if err := tx.Model(&models.RolePermission{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		roleIDs, permIDs, err := rbacIDs(tx)
		if err != nil {
			return err
		}
		var rows []models.RolePermission
		for role, perms := range models.DefaultRolePermissions {
			for _, p := range perms {
				rows = append(rows, models.RolePermission{RoleID: roleIDs[role], PermissionID: permIDs[p]})
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(noop).Create(&rows).Error
	})
}

func rbacIDs(tx *gorm.DB) (map[models.Role]uint, map[models.PermissionName]uint, error) {
	var roles []models.RoleRecord
	if err := tx.Find(&roles).Error; err != nil {
		return nil, nil, err
	}
	var perms []models.PermissionRecord
	if err := tx.Find(&perms).Error; err != nil {
		return nil, nil, err
	}
	roleIDs := make(map[models.Role]uint, len(roles))
	for _, r := range roles {
		roleIDs[r.Name] = r.ID
	}
	permIDs := make(map[models.PermissionName]uint, len(perms))
	for _, p := range perms {
		permIDs[p.Name] = p.ID
	}
	return roleIDs, permIDs, nil
}

func (s *Store) roleByName(ctx context.Context, name models.Role) (*models.RoleRecord, error) {
	var r models.RoleRecord
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(&r).Error; err != nil {
		return nil, translate(err, "role")
	}
	return &r, nil
}

func (s *Store) permissionByName(ctx context.Context, name models.PermissionName) (*models.PermissionRecord, error) {
	var p models.PermissionRecord
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, translate(err, "permission")
	}
	return &p, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]*RoleView, error) {
	var roles []models.RoleRecord
	if err := s.DB.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	var pairs []struct {
		Role       models.Role
		Permission models.PermissionName
	}
	err := s.DB.WithContext(ctx).
		Table("role_permissions rp").
		Select("r.name AS role, p.name AS permission").
		Joins("JOIN roles r ON r.id = rp.role_id").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Order("p.id").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	byRole := make(map[models.Role][]models.PermissionName)
	for _, pr := range pairs {
		byRole[pr.Role] = append(byRole[pr.Role], pr.Permission)
	}
	out := make([]*RoleView, 0, len(roles))
	for _, r := range roles {
		perms := byRole[r.Name]
		if perms == nil {
			perms = []models.PermissionName{}
		}
		out = append(out, &RoleView{Name: r.Name, Description: r.Description, Permissions: perms})
	}
	return out, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]*models.PermissionRecord, error) {
	var out []*models.PermissionRecord
	if err := s.DB.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GrantRolePermission(ctx context.Context, role models.Role, perm models.PermissionName) error {
	r, err := s.roleByName(ctx, role)
	if err != nil {
		return err
	}
	p, err := s.permissionByName(ctx, perm)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RolePermission{RoleID: r.ID, PermissionID: p.ID}).Error
}

func (s *Store) RevokeRolePermission(ctx context.Context, role models.Role, perm models.PermissionName) error {
	r, err := s.roleByName(ctx, role)
	if err != nil {
		return err
	}
	p, err := s.permissionByName(ctx, perm)
	if err != nil {
		return err
	}
	return affected(s.DB.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", r.ID, p.ID).
		Delete(&models.RolePermission{}), "role permission")
}

// GrantUserPermission gives userID a direct grant, global when academyID is nil.
func (s *Store) GrantUserPermission(ctx context.Context, userID string, perm models.PermissionName, academyID *string, grantedBy string) (*UserGrant, error) {
	p, err := s.permissionByName(ctx, perm)
	if err != nil {
		return nil, err
	}
	if academyID == nil {
		// NULLs never collide in the unique index
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.UserPermission{}).
			Where("user_id = ? AND permission_id = ? AND academy_id IS NULL", userID, p.ID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, translate(gorm.ErrDuplicatedKey, "permission grant")
		}
	}
	g := models.UserPermission{UserID: userID, PermissionID: p.ID, AcademyID: academyID, GrantedBy: grantedBy}
	if err := s.DB.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, translate(err, "permission grant")
	}
	return &UserGrant{ID: g.ID, UserID: userID, Permission: perm, AcademyID: academyID, GrantedBy: grantedBy}, nil
}

func (s *Store) RevokeUserPermission(ctx context.Context, userID string, grantID uint) error {
	return affected(s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", grantID, userID).
		Delete(&models.UserPermission{}), "permission grant")
}

func (s *Store) ListUserGrants(ctx context.Context, userID string) ([]*UserGrant, error) {
	var out []*UserGrant
	err := s.DB.WithContext(ctx).
		Table("user_permissions up").
		Select("up.id, up.user_id, p.name AS permission, up.academy_id, up.granted_by").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ?", userID).
		Order("up.id").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EffectivePermissions is the union of the permissions of roles plus the
// direct grants of userID that are global or scoped to academyID. An empty
// academyID only matches global grants.
func (s *Store) EffectivePermissions(ctx context.Context, userID string, roles []models.Role, academyID string) (models.PermissionSet, error) {
	set := models.NewPermissionSet()
	db := s.DB.WithContext(ctx)

	if len(roles) > 0 {
		var names []models.PermissionName
		err := db.Table("role_permissions rp").
			Joins("JOIN roles r ON r.id = rp.role_id").
			Joins("JOIN permissions p ON p.id = rp.permission_id").
			Where("r.name IN ?", roles).
			Distinct().
			Pluck("p.name", &names).Error
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			set[n] = struct{}{}
		}
	}

	q := db.Table("user_permissions up").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ?", userID)
	if academyID == "" {
		q = q.Where("up.academy_id IS NULL")
	} else {
		q = q.Where("(up.academy_id IS NULL OR up.academy_id = ?)", academyID)
	}
	var direct []models.PermissionName
	if err := q.Pluck("p.name", &direct).Error; err != nil {
		return nil, err
	}
	for _, n := range direct {
		set[n] = struct{}{}
	}
	return set, nil
}

// RolesFor returns the global role of u plus, when m is non-nil, the membership role.
func RolesFor(u *models.User, m *models.UserAcademy) []models.Role {
	if u == nil {
		return nil
	}
	roles := []models.Role{u.Role}
	if m != nil && m.Role != u.Role {
		roles = append(roles, m.Role)
	}
	return roles
}
