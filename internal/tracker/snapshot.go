package tracker

// Snapshot is an immutable view of the roster. The zero value is an empty
// roster.
type Snapshot struct {
	students []Student
	index    map[string]int
}

func newSnapshot(students []Student) Snapshot {
	idx := make(map[string]int, len(students))
	for i, s := range students {
		idx[s.ID()] = i
	}
	return Snapshot{students: students, index: idx}
}

func (s Snapshot) Len() int {
	return len(s.students)
}

// Students returns the roster in load order.
func (s Snapshot) Students() []Student {
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

func (s Snapshot) Get(id string) (Student, bool) {
	i, ok := s.index[id]
	if !ok {
		return Student{}, false
	}
	return s.students[i], true
}

// Scanned returns the scanned students in roster order.
func (s Snapshot) Scanned() []Student {
	var out []Student
	for _, st := range s.students {
		if st.Scanned {
			out = append(out, st)
		}
	}
	return out
}

// with returns a copy of s where the student at index i is replaced.
func (s Snapshot) with(i int, st Student) Snapshot {
	students := s.Students()
	students[i] = st
	return Snapshot{students: students, index: s.index}
}

func (s Snapshot) without(i int) Snapshot {
	students := make([]Student, 0, len(s.students)-1)
	students = append(students, s.students[:i]...)
	students = append(students, s.students[i+1:]...)
	return newSnapshot(students)
}

// Stats summarizes the roster.
type Stats struct {
	Total     int `json:"total"`
	Scanned   int `json:"scanned"`
	Absent    int `json:"absent"`
	Remaining int `json:"remaining"`
	PDFs      int `json:"pdfs"`
}

func (s Snapshot) Stats() Stats {
	st := Stats{Total: len(s.students)}
	for _, student := range s.students {
		if student.Scanned {
			st.Scanned++
		}
		if student.Status == StatusAbsent {
			st.Absent++
		}
		if student.PDF() != nil {
			st.PDFs++
		}
	}
	st.Remaining = st.Total - st.Scanned - st.Absent
	return st
}
