// Package domain defines the core business entities of the task board:
// users, swimlanes, tasks, and the comment lists embedded in tasks.
package domain
