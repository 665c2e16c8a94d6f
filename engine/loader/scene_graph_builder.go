package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/scene"
	"go.uber.org/zap"
)

// activeScene returns the document's default scene, or the first scene when none is designated.
func (im *assetImport) activeScene() (*gltf.Scene, bool) {
	doc := im.result.source
	if len(doc.Scenes) == 0 {
		return nil, false
	}
	index := common.Deref(doc.Scene, 0)
	if index < 0 || index >= len(doc.Scenes) {
		im.errs.malformed("default scene %d out of range, document has %d scenes", index, len(doc.Scenes))
		return nil, false
	}
	return doc.Scenes[index], true
}

// createEntity creates the entity of a node under parent, builds its renderable if it carries a
// mesh, then recurses into its children. Each node is entered at most once.
func (im *assetImport) createEntity(nodeIndex int, parent scene.Entity) {
	doc := im.result.source
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		im.errs.malformed("node %d out of range, document has %d nodes", nodeIndex, len(doc.Nodes))
		return
	}
	if _, seen := im.result.nodeMap[nodeIndex]; seen {
		im.errs.malformed("node %d is reachable more than once", nodeIndex)
		return
	}
	node := doc.Nodes[nodeIndex]

	e := im.entityManager.Create()
	if err := im.transformManager.Create(e, parent, nodeLocalTransform(node)); err != nil {
		im.errs.add(fmt.Errorf("node %d: %w", nodeIndex, err))
	}

	im.result.entities = append(im.result.entities, e)
	im.result.nodeMap[nodeIndex] = e
	if node.Name != "" {
		im.result.names[e] = node.Name
	}

	if node.Mesh != nil {
		im.createRenderable(nodeIndex, node, e)
	}

	for _, child := range node.Children {
		im.createEntity(int(child), e)
	}
}

// nodeLocalTransform returns the explicit matrix of a node, or T * R * S when it has none.
func nodeLocalTransform(node *gltf.Node) mgl32.Mat4 {
	m := common.Mat4FromArray(node.MatrixOrDefault())
	if m != mgl32.Ident4() {
		return m
	}

	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return common.ComposeTRS(
		mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	)
}

// buildSceneGraph creates the synthetic root and walks every root node of the active scene.
func (im *assetImport) buildSceneGraph() {
	root := im.entityManager.Create()
	if err := im.transformManager.Create(root, scene.Null, mgl32.Ident4()); err != nil {
		im.errs.add(fmt.Errorf("root entity: %w", err))
	}
	im.result.root = root

	sc, ok := im.activeScene()
	if !ok {
		im.logger.Info("glTF document has no scene, asset holds only the root entity")
		return
	}
	im.logger.Debug("building scene graph", zap.String("scene", sc.Name), zap.Int("roots", len(sc.Nodes)))
	for _, n := range sc.Nodes {
		im.createEntity(int(n), root)
	}
}
