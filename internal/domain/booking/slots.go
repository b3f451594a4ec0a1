package booking

// SlotIndex maps class name to time to the slot found on the page.
// It holds only classes that were asked for.
type SlotIndex map[string]map[string]DiscoveredSlot

// Put records s, replacing an earlier slot with the same class and time.
func (x SlotIndex) Put(s DiscoveredSlot) {
	byTime, ok := x[s.ClassName]
	if !ok {
		byTime = make(map[string]DiscoveredSlot)
		x[s.ClassName] = byTime
	}
	byTime[s.Time] = s
}

func (x SlotIndex) Lookup(class, at string) (DiscoveredSlot, bool) {
	s, ok := x[class][at]
	return s, ok
}

// Len counts slots, not classes.
func (x SlotIndex) Len() int {
	n := 0
	for _, byTime := range x {
		n += len(byTime)
	}
	return n
}

func (x SlotIndex) Empty() bool { return x.Len() == 0 }
