// Package testutil builds stores and fixtures over in-memory SQLite.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

// Password is the plain password of every fixture user.
const Password = "secret1"

var seq atomic.Int64

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

func Config() *config.Config {
	return &config.Config{
		BindAddr:        ":0",
		JWTSecret:       "test-secret",
		JWTIssuer:       "academy-api-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		LogLevel:        "disabled",
		CORSOrigins:     []string{"http://localhost:5173"},
		UploadBaseURL:   "http://localhost:8080",
	}
}

// NewStore opens a private in-memory database, migrated and seeded.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), store.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := Config()
	cfg.UploadDir = t.TempDir()
	s, err := store.New(context.Background(), db, cfg)
	require.NoError(t, err)
	return s
}

func next() int64 {
	return seq.Add(1)
}

// CreateUser inserts an active user with the fixture password.
func CreateUser(t *testing.T, s *store.Store, role models.Role) *models.User {
	t.Helper()
	n := next()
	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)
	u := &models.User{
		ID:           fmt.Sprintf("USR%07d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
		FullName:     fmt.Sprintf("User %d", n),
		Role:         role,
		Active:       true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// CreateAcademy inserts an active academy with owner as its admin.
func CreateAcademy(t *testing.T, s *store.Store, owner *models.User) *models.Academy {
	t.Helper()
	n := next()
	a := &models.Academy{
		Name:      fmt.Sprintf("Academy %d", n),
		Email:     fmt.Sprintf("office%d@example.com", n),
		Status:    models.AcademyStatusActive,
		CreatedBy: owner.ID,
	}
	require.NoError(t, s.CreateAcademy(context.Background(), a, owner.ID))
	return a
}

// AddMember makes u a member of academy with role.
func AddMember(t *testing.T, s *store.Store, academy *models.Academy, u *models.User, role models.Role) *models.UserAcademy {
	t.Helper()
	m, err := s.UpsertMember(context.Background(), academy.ID, u.ID, role)
	require.NoError(t, err)
	return m
}

func CreateStudent(t *testing.T, s *store.Store, academy *models.Academy, name string) *models.Student {
	t.Helper()
	st := &models.Student{AcademyID: academy.ID, FullName: name, Status: models.StudentStatusActive}
	require.NoError(t, s.CreateStudent(context.Background(), st))
	return st
}

func CreateTeacher(t *testing.T, s *store.Store, academy *models.Academy, name string) *models.Teacher {
	t.Helper()
	tc := &models.Teacher{AcademyID: academy.ID, FullName: name, Status: models.TeacherStatusActive}
	require.NoError(t, s.CreateTeacher(context.Background(), tc))
	return tc
}

func CreateClass(t *testing.T, s *store.Store, academy *models.Academy, name string) *models.Class {
	t.Helper()
	c := &models.Class{AcademyID: academy.ID, Name: name, Capacity: 30}
	require.NoError(t, s.CreateClass(context.Background(), c))
	return c
}

func CreateCourse(t *testing.T, s *store.Store, academy *models.Academy, code string) *models.Course {
	t.Helper()
	c := &models.Course{AcademyID: academy.ID, Code: code, Name: "Course " + code, Credits: 3}
	require.NoError(t, s.CreateCourse(context.Background(), c))
	return c
}

func CreateFeeStructure(t *testing.T, s *store.Store, academy *models.Academy, amount float64, classID *uint) *models.FeeStructure {
	t.Helper()
	f := &models.FeeStructure{
		AcademyID: academy.ID,
		Name:      fmt.Sprintf("Fee %d", next()),
		Amount:    amount,
		Frequency: models.FeeFrequencyMonthly,
		ClassID:   classID,
	}
	require.NoError(t, s.CreateFeeStructure(context.Background(), f))
	return f
}
