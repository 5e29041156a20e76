// Package school is the management surface for courses, enrollments, and
// attendance. Mutations require the teacher role and raise the corresponding
// dispatch event after the roster write commits, so notifications always
// describe state that actually exists.
package school
