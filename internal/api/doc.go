// Package api serves a loaded scene over HTTP.
//
// Routes:
//
//	GET  /health                     liveness and object count
//	GET  /objects                    object names
//	GET  /objects/{object}/curves    curves of one object
//	POST /objects/{object}/keys      insert keys (see InsertRequest)
//	POST /objects/{object}/remap     convert between global and strip time
//
// Key insertion runs under the document's writer lock, so concurrent
// requests are applied one batch at a time. When a store is configured
// every batch is appended to its keying log.
package api
