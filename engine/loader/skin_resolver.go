package loader

import (
	"github.com/winnerineast/filament/engine/scene"
)

// resolveSkins maps the joints of every skin to the entities created for them and collects the
// entities of the nodes each skin deforms. It runs after the whole scene graph exists.
func (im *assetImport) resolveSkins() {
	doc := im.result.source
	skins := make([]Skin, len(doc.Skins))
	for si, s := range doc.Skins {
		skins[si] = Skin{Name: s.Name, Joints: make([]scene.Entity, len(s.Joints))}
		for ji, node := range s.Joints {
			e, ok := im.result.nodeMap[int(node)]
			if !ok {
				im.errs.add(&ResolutionError{Skin: si, Joint: ji, Node: int(node)})
				skins[si].Joints[ji] = scene.Null
				continue
			}
			skins[si].Joints[ji] = e
		}
	}

	for ni, node := range doc.Nodes {
		if node.Skin == nil {
			continue
		}
		e, ok := im.result.nodeMap[ni]
		if !ok {
			continue
		}
		si := int(*node.Skin)
		if si < 0 || si >= len(skins) {
			// nodes with a mesh report this while building their renderable
			if node.Mesh == nil {
				im.errs.malformed("node %d references skin %d of %d", ni, si, len(skins))
			}
			continue
		}
		skins[si].Targets = append(skins[si].Targets, e)
	}
	im.result.skins = skins
}
