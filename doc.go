// Package planar is a small 2D rigid-body physics engine. Its centerpiece
// is the sleep system: each step the dynamic bodies are grouped into
// connected components over the contact and joint graph, components whose
// members have all been idle past a threshold are removed from active
// simulation wholesale, and touching any member of a sleeping component
// wakes all of it atomically while preserving contact state for solver warm
// starting.
package planar
