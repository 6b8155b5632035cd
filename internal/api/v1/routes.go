package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

type serviceStore struct {
	*store.Store
}

type API struct {
	cfg    *config.Config
	router *chi.Mux
	store  *store.Store
	files  utils.FileStore
}

func NewAPI(cfg *config.Config, s *store.Store, files utils.FileStore) *API {
	api := &API{cfg: cfg, router: chi.NewRouter(), store: s, files: files}
	api.routes()
	return api
}

func (a *API) Routes() *chi.Mux {
	return a.router
}

func noop(w http.ResponseWriter, r *http.Request) {}

func (a *API) routes() {
	usvc := service.NewUserService(a.store)
	sessions := service.NewSessionService(a.store, a.cfg)
	academies := service.NewAcademyService(a.store, sessions, a.files)
	ss := serviceStore{a.store}

	authH := NewAuthHandler(a.cfg, usvc, sessions)
	userH := NewUserHandler(ss, usvc)
	academyH := NewAcademyHandler(ss, academies)
	rbacH := NewRBACHandler(ss)
	studentH := NewStudentHandler(ss)
	teacherH := NewTeacherHandler(ss)
	classH := NewClassHandler(ss)
	courseH := NewCourseHandler(ss)
	examH := NewExamHandler(ss)
	feeH := NewFeeHandler(ss)
	attendanceH := NewAttendanceHandler(ss)

	// perm gates a route on a permission in the active academy
	perm := func(name models.PermissionName) func(http.Handler) http.Handler {
		return auth.RequirePermission(a.store, name)
	}
	global := func(name models.PermissionName) func(http.Handler) http.Handler {
		return auth.RequireGlobalPermission(a.store, name)
	}

	r := a.router
	// auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Options("/*", noop)
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)
		r.Post("/refresh", authH.Refresh)
		r.Post("/google", authH.GoogleSignIn)
	})

	r.Route("/users", func(r chi.Router) {
		r.Options("/*", noop)
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(a.store))
			r.Get("/me", userH.GetSelfProfile)
			r.Put("/me", userH.UpdateSelf)

			// account administration
			r.With(global(models.PermRBACManage)).Get("/", userH.ListUsers)
			r.With(global(models.PermRBACManage)).Get("/{id}", userH.GetUser)
			r.With(global(models.PermRBACManage)).Patch("/{id}/role", userH.ChangeRole)
			r.With(global(models.PermRBACManage)).Patch("/{id}/active", userH.SetActive)
		})
	})

	r.Route("/academies", func(r chi.Router) {
		r.Options("/*", noop)
		r = r.With(auth.AuthMiddleware(a.store))
		r.Get("/user", academyH.ListMine)
		r.Post("/switch", academyH.Switch)
		r.Post("/switch/{id}", academyH.Switch)
		r.With(global(models.PermAcademyRead)).Get("/", academyH.ListAll)
		r.With(global(models.PermAcademyCreate)).Post("/", academyH.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(auth.RequireAcademyParam(a.store, "id"))
			r.With(perm(models.PermAcademyRead)).Get("/", academyH.Get)
			r.With(perm(models.PermAcademyUpdate)).Put("/", academyH.Update)
			r.With(perm(models.PermAcademyDelete)).Delete("/", academyH.Delete)
			r.With(perm(models.PermAcademyUpdate)).Post("/logo", academyH.UploadLogo)
			r.With(perm(models.PermAcademyUpdate)).Delete("/logo", academyH.DeleteLogo)

			r.Group(func(r chi.Router) {
				r.Use(perm(models.PermAcademyMembersManage))
				r.Get("/members", academyH.ListMembers)
				r.Post("/members", academyH.AddMember)
				r.Delete("/members/{userId}", academyH.RemoveMember)
			})
		})
	})

	r.Route("/rbac", func(r chi.Router) {
		r.Options("/*", noop)
		r = r.With(auth.AuthMiddleware(a.store), global(models.PermRBACManage))
		r.Get("/roles", rbacH.ListRoles)
		r.Get("/permissions", rbacH.ListPermissions)
		r.Post("/roles/{role}/permissions/{permission}", rbacH.GrantRolePermission)
		r.Delete("/roles/{role}/permissions/{permission}", rbacH.RevokeRolePermission)
		r.Get("/users/{id}/permissions", rbacH.UserPermissions)
		r.Post("/users/{id}/permissions", rbacH.GrantUserPermission)
		r.Delete("/users/{id}/permissions/{grantId}", rbacH.RevokeUserPermission)
	})

	// tenant routes: the academy comes from the session
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(a.store))
		r.Use(auth.RequireAcademy(a.store))

		r.Route("/students", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermStudentRead)).Get("/", studentH.List)
			r.With(perm(models.PermStudentWrite)).Post("/", studentH.Create)
			r.With(perm(models.PermStudentRead)).Get("/{id}", studentH.Get)
			r.With(perm(models.PermStudentWrite)).Put("/{id}", studentH.Update)
			r.With(perm(models.PermStudentWrite)).Delete("/{id}", studentH.Delete)
			r.With(perm(models.PermFeeRead)).Get("/{id}/balance", studentH.Balance)
		})

		r.Route("/teachers", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermTeacherRead)).Get("/", teacherH.List)
			r.With(perm(models.PermTeacherWrite)).Post("/", teacherH.Create)
			r.With(perm(models.PermTeacherRead)).Get("/{id}", teacherH.Get)
			r.With(perm(models.PermTeacherWrite)).Put("/{id}", teacherH.Update)
			r.With(perm(models.PermTeacherWrite)).Delete("/{id}", teacherH.Delete)
			r.With(perm(models.PermTeacherRead)).Get("/{id}/students", teacherH.ListStudents)
			r.With(perm(models.PermTeacherWrite)).Post("/{id}/students/{studentId}", teacherH.AssignStudent)
			r.With(perm(models.PermTeacherWrite)).Delete("/{id}/students/{studentId}", teacherH.UnassignStudent)
		})

		r.Route("/classes", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermClassRead)).Get("/", classH.List)
			r.With(perm(models.PermClassWrite)).Post("/", classH.Create)
			r.With(perm(models.PermClassRead)).Get("/{id}", classH.Get)
			r.With(perm(models.PermClassWrite)).Put("/{id}", classH.Update)
			r.With(perm(models.PermClassWrite)).Delete("/{id}", classH.Delete)
			r.With(perm(models.PermClassRead)).Get("/{id}/students", classH.ListStudents)
			r.With(perm(models.PermClassWrite)).Post("/{id}/students", classH.AddStudents)
			r.With(perm(models.PermClassWrite)).Delete("/{id}/students/{studentId}", classH.RemoveStudent)
			r.With(perm(models.PermClassRead)).Get("/{id}/teachers", classH.ListTeachers)
			r.With(perm(models.PermClassWrite)).Post("/{id}/teachers/{teacherId}", classH.AddTeacher)
			r.With(perm(models.PermClassWrite)).Delete("/{id}/teachers/{teacherId}", classH.RemoveTeacher)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermCourseRead)).Get("/", courseH.List)
			r.With(perm(models.PermCourseWrite)).Post("/", courseH.Create)
			r.With(perm(models.PermCourseRead)).Get("/{id}", courseH.Get)
			r.With(perm(models.PermCourseWrite)).Put("/{id}", courseH.Update)
			r.With(perm(models.PermCourseWrite)).Delete("/{id}", courseH.Delete)
			r.With(perm(models.PermCourseRead)).Get("/{id}/students", courseH.ListStudents)
			r.With(perm(models.PermCourseWrite)).Post("/{id}/students", courseH.EnrollStudents)
			r.With(perm(models.PermCourseWrite)).Delete("/{id}/students/{studentId}", courseH.UnenrollStudent)
			r.With(perm(models.PermCourseRead)).Get("/{id}/teachers", courseH.ListTeachers)
			r.With(perm(models.PermCourseWrite)).Post("/{id}/teachers/{teacherId}", courseH.AddTeacher)
			r.With(perm(models.PermCourseWrite)).Delete("/{id}/teachers/{teacherId}", courseH.RemoveTeacher)
			r.With(perm(models.PermFeeRead)).Get("/{id}/fee-structures", courseH.ListFeeStructures)
			r.With(perm(models.PermFeeWrite)).Post("/{id}/fee-structures/{feeStructureId}", courseH.LinkFeeStructure)
			r.With(perm(models.PermFeeWrite)).Delete("/{id}/fee-structures/{feeStructureId}", courseH.UnlinkFeeStructure)
		})

		r.Route("/exams", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermExamRead)).Get("/", examH.List)
			r.With(perm(models.PermExamWrite)).Post("/", examH.Create)
			r.With(perm(models.PermExamRead)).Get("/{id}", examH.Get)
			r.With(perm(models.PermExamWrite)).Put("/{id}", examH.Update)
			r.With(perm(models.PermExamWrite)).Delete("/{id}", examH.Delete)
			r.With(perm(models.PermExamRead)).Get("/{id}/results", examH.ListResults)
			r.With(perm(models.PermExamWrite)).Post("/{id}/results", examH.RecordResults)
			r.With(perm(models.PermExamWrite)).Delete("/{id}/results/{studentId}", examH.DeleteResult)
		})

		r.Route("/fee-structures", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermFeeRead)).Get("/", feeH.ListStructures)
			r.With(perm(models.PermFeeWrite)).Post("/", feeH.CreateStructure)
			r.With(perm(models.PermFeeRead)).Get("/{id}", feeH.GetStructure)
			r.With(perm(models.PermFeeWrite)).Put("/{id}", feeH.UpdateStructure)
			r.With(perm(models.PermFeeWrite)).Delete("/{id}", feeH.DeleteStructure)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermPaymentRead)).Get("/", feeH.ListPayments)
			r.With(perm(models.PermPaymentWrite)).Post("/", feeH.CreatePayment)
			r.With(perm(models.PermPaymentRead)).Get("/{id}", feeH.GetPayment)
			r.With(perm(models.PermPaymentWrite)).Delete("/{id}", feeH.DeletePayment)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Options("/*", noop)
			r.With(perm(models.PermAttendanceRead)).Get("/", attendanceH.ListAttendances)
			r.With(perm(models.PermAttendanceWrite)).Post("/", attendanceH.CreateAttendance)
			r.With(perm(models.PermAttendanceRead)).Get("/summary", attendanceH.Summary)
			r.With(perm(models.PermAttendanceRead)).Get("/{id}", attendanceH.GetAttendance)
			r.With(perm(models.PermAttendanceWrite)).Patch("/{id}", attendanceH.UpdateAttendance)
			r.With(perm(models.PermAttendanceWrite)).Delete("/{id}", attendanceH.DeleteAttendance)
		})
	})

	r.Route("/health", func(r chi.Router) {
		r.Options("/*", noop)
		r.Get("/", HealthHandler(a.store))
	})
}
