// Package notification turns task mutation events into email delivery.
// The event handler converts events into persistent background jobs,
// each job loads its referenced entities at execution time and sends
// one composed email, and the daily summarizer sweeps every user's
// overdue tasks into a per-project digest. Deliveries retry with
// exponential backoff; missing entities fail a job permanently.
package notification
