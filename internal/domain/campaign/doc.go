// Package campaign contains the Campaign bounded context.
// This context owns the locally generated campaign hierarchy and its
// synchronization state against external ad platforms.
//
// Key concepts:
//   - CampaignSet/Campaign/AdGroup/Ad/Keyword: The generated hierarchy; entity
//     identity is the durable generation-time id, never the display name
//   - PlatformAdapter: Port interface for external ad platforms (Reddit, Google, Facebook)
//   - SyncRecord: Per-campaign sync and retry bookkeeping state
//   - ConflictDetail: Structured record of local/platform divergence
//   - CalculateDiff: Pure structural diff between stored and target hierarchies
//
// Design Pattern: Ports & Adapters
//   - Ports (PlatformAdapter, CampaignRepository) are defined here in the domain layer
//   - Adapters (HTTP platform clients, the gorm repository) are in the infrastructure layer
package campaign
