// Command careerflow runs the career application assistant service: an
// HTTP API over the resumable CV-to-cover-letter pipeline, with health
// probes and Prometheus metrics.
package main
