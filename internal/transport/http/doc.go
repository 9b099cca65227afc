// Package http implements the HTTP handlers of the GDV web service.
// Handlers stay thin: they parse and validate the request, call the data
// service and render either the success envelope or an RFC 7807 problem.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → DatasetCtx → Handler → DataSource
//	                                                          ↓
//	HTTP Response ← render.JSON ← api.Success ←──────────────┘
//
// DatasetCtx pins the dataset that was current when the request arrived, so
// a reload in the middle of a request never mixes two datasets. It also sets
// the ETag header from the dataset fingerprint and answers If-None-Match
// with 304.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/data/country-not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "country \"Atlantis\" not found",
//	    "instance": "/api/data/countries/Atlantis"
//	}
//
// Service sentinels are mapped in one place: a missing dataset is 503, an
// unknown year or indicator is 400 and a concurrent reload is 409.
//
// # Testing
//
// Handlers are tested with httptest and a testify mock of
// DataServiceInterface backed by an in-memory dataset.
package http
