// Package risk provides the business boundary for CatRisk's concentration
// and alert workflows. It defines the Analyzer and Alerter (independent
// async state machines over the external analysis service), the bounded
// persisted History log, the alert filter view, and domain models.
package risk
