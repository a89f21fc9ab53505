// Package knowledge implements grounded-knowledge retrieval for the agent:
// documents are chunked, embedded, and indexed in a flat L2 nearest-neighbor
// structure; queries return the top-k chunks with their provenance. Retrieval
// output never affects the optimizer's feasible region, it only grounds the
// narrated recommendation.
package knowledge
