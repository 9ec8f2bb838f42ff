package physics

type SyncStats struct {
	Passes  int
	Synced  int
	Skipped int
}

// SyncTransforms copies the motion state pose of every registered body onto
// its proxy. It must run after Step and before anything reads proxy poses.
func (w *World) SyncTransforms() {
	w.sync.Passes++
	for _, h := range w.slots {
		if h == nil {
			continue
		}
		ms := h.body.MotionState()
		if ms == nil {
			w.sync.Skipped++
			continue
		}
		t := ms.GetWorldTransform()
		h.proxy.SetPosition(t.Origin)
		h.proxy.SetOrientation(t.Rotation)
		w.sync.Synced++
	}
}

func (w *World) SyncStats() SyncStats { return w.sync }
