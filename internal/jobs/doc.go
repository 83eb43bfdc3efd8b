// Package jobs implements background job processing for the EventSphere API.
//
// # Scheduler
//
// A Scheduler is a registry of named periodic tasks. Names come from a
// closed set (see KnownTasks) and the first registration of a name wins:
//
//	s := jobs.NewScheduler(logger, 2*time.Minute)
//	jobs.RegisterLifecycleTasks(s, jobs.Dependencies{
//	    Events:  eventService,
//	    Reports: reportService,
//	    Users:   userService,
//	}, jobs.DefaultConfig())
//	defer s.Stop()
//
// RunNow triggers a registered task synchronously with the same function
// the timer uses.
//
// # Error Handling
//
// A failing or panicking tick is logged and recorded in Status. It never
// stops later ticks.
package jobs
