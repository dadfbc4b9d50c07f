// Package natsq connects the ingestion and search services to NATS.
//
// A Server joins a queue group on two subjects:
//
//	cookbook.ingest  {"url": ..., "user_id": ..., "chat_id": ...}
//	cookbook.search  {"search_text": ..., "user_id": ..., "chat_id": ...}
//
// Ingest messages are submitted to the ingestor's worker pool; if the message
// carries a reply subject the job id is returned at once. Search messages are
// request/reply and answered with a SearchResponse.
//
// A Publisher implements ingestion.Notifier and publishes job outcomes to
// cookbook.notify for whichever front end delivers them to users.
package natsq
