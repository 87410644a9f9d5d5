package pod_nav

// StateTracker derives accelerations from successive velocity samples.
type StateTracker struct {
	seed float64

	lastDYDT   *float64
	lastDXDT   *float64
	lastAccel  float64
	lastAccelX float64
}

// NewStateTracker constructs a tracker. zeroThreshold sizes the seed used on
// the first sample so it reads as "falling" without looking like zero.
func NewStateTracker(zeroThreshold float64) *StateTracker {
	return &StateTracker{seed: zeroThreshold * 10}
}

// Update attaches Accel, PrevAccel, AccelX, PrevAccelX and DT to st.
//
// The first sample has no previous velocity, so every acceleration field on
// it carries the synthetic seed rather than a measured value.
func (tr *StateTracker) Update(st KinematicState, dt float64) (KinematicState, error) {
	if err := checkTimestep(dt); err != nil {
		return st, err
	}
	st.DT = dt

	if tr.lastDYDT == nil {
		st.Accel, st.PrevAccel = tr.seed, tr.seed
		st.AccelX, st.PrevAccelX = tr.seed, tr.seed
	} else {
		st.Accel = (st.DYDT - *tr.lastDYDT) / dt
		st.AccelX = (st.DXDT - *tr.lastDXDT) / dt
		st.PrevAccel = tr.lastAccel
		st.PrevAccelX = tr.lastAccelX
	}

	dydt, dxdt := st.DYDT, st.DXDT
	tr.lastDYDT = &dydt
	tr.lastDXDT = &dxdt
	tr.lastAccel = st.Accel
	tr.lastAccelX = st.AccelX
	return st, nil
}
