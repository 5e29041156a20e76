// Package roster holds the relational school data the notification core
// depends on: users, courses, enrollments and attendance records.
//
// The notification subsystem treats this as an external collaborator; only
// the lookups the identity allocator and the dispatch engine need are
// exposed through the Store interface. Attendance statistics, admin
// screens and the rest of the CRUD surface are intentionally absent.
package roster
