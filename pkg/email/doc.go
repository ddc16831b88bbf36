// Package email abstracts transactional email delivery behind the Sender
// interface, with a Postmark implementation for production and a log-only
// DevSender for local development.
package email
