package models

// Question is a single natural-language query to run through the pipeline.
// The JSONL questions file carries one of these per line.
type Question struct {
	Text string `json:"question"`
}
