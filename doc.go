// Package main provides the entry point for the accessdesk administration
// service. It runs a JSON API using the Fiber framework that exposes
// permission checks, resource grants, access reviews, and review schedules
// for a multi-tenant SaaS platform. The service uses gorm for data
// persistence, an optional Redis-backed permission cache, and a cron-driven
// scheduler that materializes recurring access reviews.
package main
