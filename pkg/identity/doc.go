// Package identity generates collision-free user ids and usernames for the
// school roster.
//
// Ids look like STU000427: a role prefix plus a 6-digit random number drawn
// from a space of one million per role. Usernames are derived from the
// person's name plus the id tail (j.smith427) with a numeric suffix on
// collision. Uniqueness is checked against the live user set through caller
// supplied ExistsFunc callbacks, and the random source is injectable so
// tests can drive both the collision and the exhaustion paths.
package identity
