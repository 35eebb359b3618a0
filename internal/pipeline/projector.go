package pipeline

import (
	models "armature/internal/domain/models/pipeline"
)

// projectResultLocked applies a completed job's declared result onto the
// owning project.
//
// A declared hierarchy replaces the project's hierarchy wholesale; stats
// and hasGeometry are then recomputed by walking the new tree, never
// trusted from the caller. A geometryDelta without a hierarchy adds to the
// existing stats, setting hasGeometry when either stat becomes positive. A
// result declaring neither leaves stats untouched. Every projection bumps
// the revision and appends one snapshot event, even when no visible field
// changed. Callers must hold s.mu and have validated the result schema.
func (s *Store) projectResultLocked(w *workspace, project *models.Project, result map[string]any) {
	if raw, ok := result["hierarchy"]; ok && raw != nil {
		hierarchy := decodeHierarchy(raw)
		project.Hierarchy = hierarchy
		project.Stats = models.CountHierarchy(hierarchy)
		project.HasGeometry = project.Stats.Bones > 0 || project.Stats.Cubes > 0
	} else if raw, ok := result["geometryDelta"]; ok && raw != nil {
		if delta, ok := raw.(map[string]any); ok {
			if bones, ok := intValue(delta["bones"]); ok {
				project.Stats.Bones += bones
			}
			if cubes, ok := intValue(delta["cubes"]); ok {
				project.Stats.Cubes += cubes
			}
			if project.Stats.Bones > 0 || project.Stats.Cubes > 0 {
				project.HasGeometry = true
			}
		}
	}

	project.Revision++
	project.UpdatedAt = s.now()
	s.appendSnapshotLocked(w, project)

	s.logger.Info("job result projected",
		"workspace_id", w.id,
		"project_id", project.ID,
		"revision", project.Revision,
		"bones", project.Stats.Bones,
		"cubes", project.Stats.Cubes,
		"has_geometry", project.HasGeometry,
	)
}

// decodeHierarchy converts the validated JSON-shaped hierarchy of a job
// result into model nodes.
func decodeHierarchy(raw any) []models.HierarchyNode {
	items, ok := raw.([]any)
	if !ok {
		return []models.HierarchyNode{}
	}
	nodes := make([]models.HierarchyNode, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node := models.HierarchyNode{}
		if id, ok := m["id"].(string); ok {
			node.ID = id
		}
		if name, ok := m["name"].(string); ok {
			node.Name = name
		}
		if kind, ok := m["kind"].(string); ok {
			node.Kind = models.NodeKind(kind)
		}
		if children, ok := m["children"]; ok && children != nil {
			node.Children = decodeHierarchy(children)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
