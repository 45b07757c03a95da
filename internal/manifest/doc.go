// Package manifest loads event manifests: CUE documents that declare an
// event, its collaborators, and its ticket classes, validated against an
// embedded schema and applied to a ledger.
//
// A manifest looks like:
//
//	event: {
//		authority: "org"
//		id:        "fest"
//		title:     "Summer Fest"
//		currency:  "USD"
//		fee_vault: true
//	}
//	collaborators: ["door"]
//	classes: {
//		ga:  {price: 5, quantity: 30}
//		vip: {price: 50, quantity: 10, uses: 2, proof_of_attendance: true}
//	}
//
// Class keys are the class seeds.
package manifest
