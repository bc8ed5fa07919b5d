package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	TimeSlots     *TimeSlotHandler
	Availability  *AvailabilityHandler
	Prerequisites *PrerequisiteHandler
	Eligibility   *EligibilityHandler
	Enrollments   *EnrollmentHandler
	Waitlist      *WaitlistHandler
	Export        *ExportHandler
}

// RegisterRoutes mounts the API under group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers) {
	slots := group.Group("/time-slots")
	slots.GET("", h.TimeSlots.List)
	slots.POST("", h.TimeSlots.Create)
	slots.POST("/check", h.TimeSlots.Check)
	slots.GET("/:id", h.TimeSlots.Get)
	slots.PATCH("/:id", h.TimeSlots.Update)
	slots.POST("/:id/cancel", h.TimeSlots.Cancel)

	availability := group.Group("/availability")
	availability.GET("/teachers", h.Availability.Teachers)
	availability.GET("/rooms", h.Availability.Rooms)

	prerequisites := group.Group("/subjects/:id/prerequisites")
	prerequisites.POST("", h.Prerequisites.Add)
	prerequisites.GET("/closure", h.Prerequisites.Closure)
	prerequisites.GET("/tree", h.Prerequisites.Tree)
	prerequisites.DELETE("/:prerequisiteId", h.Prerequisites.Remove)

	group.GET("/students/:id/eligibility", h.Eligibility.Check)

	group.POST("/enrollments", h.Enrollments.Enroll)
	group.POST("/enrollments/:id/withdraw", h.Enrollments.Withdraw)

	waitlist := group.Group("/classes/:id/waitlist")
	waitlist.GET("", h.Waitlist.List)
	waitlist.POST("", h.Waitlist.Join)
	waitlist.POST("/promote", h.Waitlist.Promote)
	waitlist.DELETE("/:studentId", h.Waitlist.Leave)

	group.GET("/timetables/:resource/:id/export", h.Export.Timetable)
}
