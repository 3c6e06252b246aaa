package models

type Allergy struct {
	Type        string `db:"allergy_type" json:"allergy_type"`
	Description string `db:"description" json:"description"`
}

// AllergyPreference is a catalog entry flagged with whether the user
// declared it.
type AllergyPreference struct {
	Allergy
	AllergicTo bool
}

// AllergyChanges is what has to be written to move a user's declared
// allergies to a newly submitted set.
type AllergyChanges struct {
	Add    []string
	Remove []string
}

func (c AllergyChanges) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// DiffAllergies walks the catalog in order: types only in current are
// removed, types only in toggledOn are added. Submitted types that are not
// in the catalog are ignored.
func DiffAllergies(catalog, current, toggledOn []string) AllergyChanges {
	has := toSet(current)
	want := toSet(toggledOn)

	var changes AllergyChanges
	for _, t := range catalog {
		switch {
		case has[t] && !want[t]:
			changes.Remove = append(changes.Remove, t)
		case !has[t] && want[t]:
			changes.Add = append(changes.Add, t)
		}
	}
	return changes
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
