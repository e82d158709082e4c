// Package harness runs legal acceptance fixture scenarios.
//
// A scenario is a YAML file that seeds documents, versions and accounts,
// then runs fixture steps inside the start and end hooks of the snapshot
// manager:
//
//	name: default-propagation
//	description: Rows without a version or date use the defaults
//	now: "2024-06-15T09:30:00Z"
//	accounts:
//	  - id: "1"
//	    name: Admin
//	documents:
//	  - id: terms
//	    label: my_terms
//	    require_signup: true
//	    require_existing: true
//	    versions:
//	      - id: terms_12345
//	        label: my_terms_12345
//	        published: true
//	steps:
//	  - accept_documents:
//	      document: my_terms
//	      rows:
//	        - uid: Admin
//	assertions:
//	  - type: acceptance
//	    index: 0
//	    version: terms_12345
//	    accepted_at: "2024-06-15T09:30:00Z"
//
// Scenario files are decoded strictly and validated against an embedded CUE
// schema before they run. Each run gets a fresh in-memory store, a fixed
// clock and sequential acceptance IDs, so the trace of a run is stable and
// can be compared against a golden file.
//
// Assertions run in one of two phases. "during" assertions see the store
// before the end hook restores enforcement; "after" assertions see it once
// the hook has run.
package harness
