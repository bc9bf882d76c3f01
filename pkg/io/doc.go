// Package io reads and writes GPU hierarchies as JSON or TOML.
//
// # Format
//
// Both formats share the field names of [hierarchy.Cluster]:
//
//	{
//	  "id": "root-1",
//	  "name": "GPU Cluster",
//	  "totalGPU": 100,
//	  "organizations": [{
//	    "id": "org-prod",
//	    "name": "Production",
//	    "allocatedGPU": 80,
//	    "businessUnits": [{"id": "bu-ml", "name": "Machine Learning", "allocatedGPU": 45, "projects": [...]}],
//	    "projects": [],
//	    "borrowingRelations": [{"fromId": "bu-analytics", "toId": "bu-ml", "borrowedAmount": 30}]
//	  }]
//	}
//
// The TOML form nests the same keys as arrays of tables:
//
//	id = "root-1"
//	totalGPU = 100.0
//
//	[[organizations]]
//	id = "org-prod"
//	allocatedGPU = 80.0
//
//	  [[organizations.businessUnits]]
//	  id = "bu-ml"
//
// # Import
//
// Use [ImportFile] to read a file, dispatching on its extension, or
// [ReadJSON]/[ReadTOML] for any io.Reader. Every reader runs
// [hierarchy.Validate] before returning, so duplicate or empty ids are
// rejected with INVALID_HIERARCHY. Dangling borrowing relations and zero
// allocations are accepted; they show up as diagnostics on the diagram.
//
// # Export
//
// [WriteJSON], [WriteTOML] and [ExportFile] write a hierarchy back out in
// a form the readers accept.
package io
