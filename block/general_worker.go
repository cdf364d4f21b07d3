package block

// GeneralWork is a legacy fixed-arity work callback: given the caller's
// suggested output item count, per-port available input item counts,
// and raw input/output byte slices, it returns the same outcome codes
// as Worker.Work.
type GeneralWork func(noutputItems int, ninputItems []int, in [][]byte, out [][]byte) int

// GeneralWorker adapts a GeneralWork callback to the Worker interface,
// for blocks migrated from a C-style fixed-arity signature rather than
// written against IO directly.
type GeneralWorker struct {
	Fn GeneralWork
}

// Work implements Worker.
func (g GeneralWorker) Work(io *IO) int {
	ninput := make([]int, len(io.Inputs))
	in := make([][]byte, len(io.Inputs))
	for i, inp := range io.Inputs {
		ninput[i] = inp.Items
		in[i] = inp.Bytes
	}

	out := make([][]byte, len(io.Outputs))
	noutputItems := 0
	for i, o := range io.Outputs {
		out[i] = o.Bytes
		if i == 0 || o.Items < noutputItems {
			noutputItems = o.Items
		}
	}

	return g.Fn(noutputItems, ninput, in, out)
}
