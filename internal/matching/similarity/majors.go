// internal/matching/similarity/majors.go
package similarity

// majorClusters groups majors that count as related. The first entry of each
// cluster is its canonical name. A major may belong to more than one cluster.
var majorClusters = [][]string{
	{"computer science", "software engineering", "information technology", "data science", "artificial intelligence"},
	{"business administration", "management", "marketing", "finance", "economics"},
	{"electrical engineering", "computer engineering", "electronics", "telecommunications"},
	{"mechanical engineering", "aerospace engineering", "automotive engineering", "robotics"},
	{"psychology", "cognitive science", "behavioral science", "neuroscience"},
	{"biology", "biotechnology", "biochemistry", "bioinformatics", "molecular biology"},
	{"chemistry", "chemical engineering", "materials science", "pharmaceutical science"},
	{"mathematics", "statistics", "actuarial science", "applied mathematics", "data science"},
	{"physics", "astronomy", "astrophysics", "engineering physics", "materials science"},
}

var clustersByMajor = indexClusters(majorClusters)

func indexClusters(clusters [][]string) map[string][]int {
	idx := make(map[string][]int)
	for id, cluster := range clusters {
		for _, major := range cluster {
			idx[major] = append(idx[major], id)
		}
	}
	return idx
}

// AreRelatedMajors reports whether a and b fall in the same cluster.
func AreRelatedMajors(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	for _, ca := range clustersByMajor[a] {
		for _, cb := range clustersByMajor[b] {
			if ca == cb {
				return true
			}
		}
	}
	return false
}

// ClusterMembership flattens the cluster table into parallel (clusterID, major)
// slices, one pair per membership. The SQL strategy binds these as arrays so the
// database evaluates the same table.
func ClusterMembership() (ids []int64, majors []string) {
	for id, cluster := range majorClusters {
		for _, major := range cluster {
			ids = append(ids, int64(id))
			majors = append(majors, major)
		}
	}
	return ids, majors
}
