// Package accountstore provides sessionauth.AccountProvider implementations:
// a gorm/Postgres Store and an in-process Memory provider.
package accountstore
