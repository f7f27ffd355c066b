// Package models defines the core domain models for FitManager.
//
// # Models
//
//   - Member: a gym member and their current subscription
//   - MemberSummary: read-side view of a member with its derived status
//   - AttendanceRecord: one check-in on the attendance ledger
//   - Identity: the signed-in staff user (admin or employee)
//
// # Design Principles
//
// 1. **Derived status**: Member has no stored status field. Status is computed
// from EndDate and the current time whenever a member is read.
// 2. **End date is derived**: EndDate always equals StartDate + plan length and
// is never accepted as input.
// 3. **Append-only attendance**: AttendanceRecord is immutable once created.
// 4. **No pointers between models**: relationships use ID strings, with the
// member name denormalized onto attendance records.
package models
