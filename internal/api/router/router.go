package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timify/backend/config"
	"timify/backend/internal/api/handler"
	"timify/backend/internal/api/middleware"
	"timify/backend/internal/model"
	"timify/backend/pkg/jwt"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 6 << 20
	loginLimit     = 10
	loginWindow    = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
//
// blacklist / limiter 由 Redis 客户端实现，Redis 未启用时传 nil 以降级。
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	blacklist middleware.TokenBlacklist,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes, map[string]int64{
		"/api/v1/users/import": maxImportBytes,
	}))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleStaff)
	student := middleware.RoleAuth(model.RoleStudent)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, loginLimit, loginWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", h.User.ImportStudents)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 教室模块
			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.List)
				rooms.GET("/:id", h.Room.Get)
				rooms.POST("", admin, h.Room.Create)
				rooms.PUT("/:id", admin, h.Room.Update)
				rooms.DELETE("/:id", admin, h.Room.Delete)
			}

			// 课程模块
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Subject.List)
				subjects.GET("/summary", admin, h.Subject.Summary)
				subjects.GET("/:id", h.Subject.Get)
				subjects.POST("", admin, h.Subject.Create)
				subjects.PUT("/:id", admin, h.Subject.Update)
				subjects.DELETE("/:id", admin, h.Subject.Delete)
			}

			// 教师模块
			faculty := authorized.Group("/faculty", admin)
			{
				faculty.GET("", h.Faculty.List)
				faculty.POST("", h.Faculty.Create)
				faculty.GET("/:id", h.Faculty.Get)
				faculty.PUT("/:id", h.Faculty.Update)
				faculty.DELETE("/:id", h.Faculty.Delete)
			}

			// 学分上限
			limits := authorized.Group("/credit-limits")
			{
				limits.GET("", h.CreditLimit.List)
				limits.PUT("/:semester", admin, h.CreditLimit.Upsert)
				limits.DELETE("/:semester", admin, h.CreditLimit.Delete)
			}

			// 课表模块
			timetables := authorized.Group("/timetables")
			{
				timetables.GET("/master", h.Timetable.Master)
				timetables.GET("/faculty/:id", admin, h.Timetable.Faculty)
				timetables.GET("/room/:id", h.Timetable.Room)
				timetables.POST("/generate", admin, h.Timetable.Generate)
				timetables.POST("/reset", admin, h.Timetable.Reset)
				timetables.GET("", admin, h.Timetable.List)
				timetables.GET("/:id", admin, h.Timetable.Get)
				timetables.POST("/:id/publish", admin, h.Timetable.Publish)
				timetables.DELETE("/:id", admin, h.Timetable.Delete)
			}
			authorized.GET("/admin/dashboard", admin, h.Timetable.AdminDashboard)

			// 学生端
			stu := authorized.Group("/student", student)
			{
				stu.GET("/subjects", h.Student.AvailableSubjects)
				stu.POST("/subjects/:id/enroll", h.Student.Enroll)
				stu.DELETE("/subjects/:id/enroll", h.Student.Drop)
				stu.GET("/enrollments", h.Student.MySubjects)
				stu.GET("/timetable", h.Student.Timetable)
				stu.GET("/dashboard", h.Student.Dashboard)
			}

			// 教师端
			stf := authorized.Group("/staff", staff)
			{
				stf.GET("/schedule", h.Staff.Schedule)
				stf.GET("/subjects", h.Staff.Subjects)
				stf.GET("/room-schedule", h.Staff.RoomSchedule)
				stf.GET("/dashboard", h.Staff.Dashboard)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/master.xlsx", admin, h.Export.MasterExcel)
				export.GET("/master.csv", admin, h.Export.MasterCSV)
				export.GET("/master.pdf", admin, h.Export.MasterPDF)
				export.GET("/me.xlsx", middleware.RoleAuth(model.RoleStaff, model.RoleStudent), h.Export.MyExcel)
				export.GET("/me.ics", middleware.RoleAuth(model.RoleStaff, model.RoleStudent), h.Export.MyICS)
			}
		}
	}

	return r
}
