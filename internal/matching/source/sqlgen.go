// internal/matching/source/sqlgen.go
package source

import (
	"fmt"
	"strconv"
	"strings"

	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/models"

	"github.com/lib/pq"
)

// Bind positions of the ranking query.
const (
	argUniversities = iota + 1
	argMajors
	argDegree
	argLanguages
	argSpecialties
	argClusterIDs
	argClusterMajors
	argDegreeOrder
	argLimit
)

// BuildRankingQuery renders the scoring query from the tier table. Every
// CASE below mirrors one Scorer tier; weights are inlined as literals and
// request values are bound. The fuzzy ratio half of the major fallback has no
// SQL counterpart, so only its substring half is evaluated here.
func BuildRankingQuery(w scoring.Weights, useAuxiliaryTables bool) string {
	p := func(n int) string { return "$" + strconv.Itoa(n) }
	texts := func(n int) string { return p(n) + "::text[]" }
	hasAny := func(n int) string { return "COALESCE(cardinality(" + texts(n) + "), 0) > 0" }

	var uni strings.Builder
	fmt.Fprintf(&uni, "CASE\n\t\t\tWHEN n.uni = '' OR NOT %s THEN 0\n", hasAny(argUniversities))
	fmt.Fprintf(&uni, "\t\t\tWHEN n.uni = ANY(%s) THEN %s\n", texts(argUniversities), lit(w.UniversityExact))
	fmt.Fprintf(&uni, "\t\t\tWHEN EXISTS (SELECT 1 FROM unnest(%s) AS t(v) WHERE position(t.v IN n.uni) > 0 OR position(n.uni IN t.v) > 0) THEN %s\n",
		texts(argUniversities), lit(w.UniversitySubstring))
	if useAuxiliaryTables {
		fmt.Fprintf(&uni, "\t\t\tWHEN EXISTS (SELECT 1 FROM university_rankings r1 JOIN university_rankings r2 ON abs(r1.rank - r2.rank) <= %d "+
			"WHERE lower(btrim(r1.university_name)) = n.uni AND lower(btrim(r2.university_name)) = ANY(%s)) THEN %s\n",
			w.UniversityTierWindow, texts(argUniversities), lit(w.UniversityTier))
	}
	uni.WriteString("\t\t\tELSE 0 END")

	var major strings.Builder
	fmt.Fprintf(&major, "CASE\n\t\t\tWHEN n.major = '' OR NOT %s THEN 0\n", hasAny(argMajors))
	fmt.Fprintf(&major, "\t\t\tWHEN n.major = ANY(%s) THEN %s\n", texts(argMajors), lit(w.MajorExact))
	fmt.Fprintf(&major, "\t\t\tWHEN EXISTS (SELECT 1 FROM unnest(%s::int[], %s) AS a(cluster_id, name) "+
		"JOIN unnest(%s::int[], %s) AS b(cluster_id, name) ON a.cluster_id = b.cluster_id "+
		"WHERE a.name = n.major AND b.name = ANY(%s)) THEN %s\n",
		p(argClusterIDs), texts(argClusterMajors), p(argClusterIDs), texts(argClusterMajors), texts(argMajors), lit(w.MajorRelated))
	if useAuxiliaryTables {
		fmt.Fprintf(&major, "\t\t\tWHEN EXISTS (SELECT 1 FROM major_categories c1 JOIN major_categories c2 ON lower(btrim(c1.category)) = lower(btrim(c2.category)) "+
			"WHERE btrim(c1.category) <> '' AND lower(btrim(c1.major_name)) = n.major AND lower(btrim(c2.major_name)) = ANY(%s)) THEN %s\n",
			texts(argMajors), lit(w.MajorCategory))
	}
	fmt.Fprintf(&major, "\t\t\tWHEN EXISTS (SELECT 1 FROM unnest(%s) AS t(v) WHERE position(t.v IN n.major) > 0 OR position(n.major IN t.v) > 0) THEN %s\n",
		texts(argMajors), lit(w.MajorFuzzy))
	major.WriteString("\t\t\tELSE 0 END")

	degree := fmt.Sprintf("CASE\n\t\t\tWHEN %[1]s::text = '' OR n.degree = '' THEN 0\n"+
		"\t\t\tWHEN n.degree = %[1]s::text THEN %[2]s\n"+
		"\t\t\tWHEN abs(array_position(%[3]s, n.degree) - array_position(%[3]s, %[1]s::text)) = 1 THEN %[4]s\n"+
		"\t\t\tELSE 0 END",
		p(argDegree), lit(w.DegreeExact), texts(argDegreeOrder), lit(w.DegreeAdjacent))

	rating := "0"
	if w.RatingScale > 0 {
		rating = fmt.Sprintf("ROUND((LEAST(GREATEST(COALESCE(m.rating, 0), 0), %[1]s) / %[1]s * %[2]s)::numeric, 4)",
			lit(w.RatingScale), lit(w.RatingWeight))
	}

	language := fmt.Sprintf("CASE\n\t\t\tWHEN NOT %[1]s THEN %[2]s\n"+
		"\t\t\tWHEN n.langs @> %[3]s THEN %[4]s\n"+
		"\t\t\tWHEN n.langs && %[3]s THEN %[5]s\n"+
		"\t\t\tELSE 0 END",
		hasAny(argLanguages), lit(w.LanguageNoPreference), texts(argLanguages), lit(w.LanguageFull), lit(w.LanguagePartial))

	var exp strings.Builder
	exp.WriteString("CASE\n")
	for _, tier := range w.Experience {
		fmt.Fprintf(&exp, "\t\t\tWHEN COALESCE(m.total_sessions, 0) >= %d THEN %s\n", tier.MinSessions, lit(tier.Bonus))
	}
	exp.WriteString("\t\t\tELSE 0 END")

	specialty := fmt.Sprintf("CASE WHEN n.specs && %s THEN %s ELSE 0 END", texts(argSpecialties), lit(w.Specialty))

	return fmt.Sprintf(`SELECT %s,
	s.university_match, s.major_match, s.degree_match, s.rating_score,
	s.language_match, s.experience_bonus, s.specialty_bonus,
	ROUND((s.university_match + s.major_match + s.degree_match + s.rating_score +
		s.language_match + s.experience_bonus + s.specialty_bonus)::numeric, 4)::float8 AS total_score
FROM mentors m
CROSS JOIN LATERAL (
	SELECT
		lower(btrim(COALESCE(m.university, ''))) AS uni,
		lower(btrim(COALESCE(m.major, ''))) AS major,
		lower(btrim(COALESCE(m.degree_level, ''))) AS degree,
		ARRAY(SELECT lower(btrim(x)) FROM unnest(COALESCE(m.languages, '{}'::text[])) AS x) AS langs,
		ARRAY(SELECT lower(btrim(x)) FROM unnest(COALESCE(m.specialties, '{}'::text[])) AS x) AS specs
) n
CROSS JOIN LATERAL (
	SELECT
		(%s)::float8 AS university_match,
		(%s)::float8 AS major_match,
		(%s)::float8 AS degree_match,
		(%s)::float8 AS rating_score,
		(%s)::float8 AS language_match,
		(%s)::float8 AS experience_bonus,
		(%s)::float8 AS specialty_bonus
) s
WHERE m.verification_status = '%s'
ORDER BY total_score DESC, COALESCE(m.rating, 0) DESC, COALESCE(m.total_sessions, 0) DESC, m.id ASC
LIMIT %s`,
		SelectList(),
		uni.String(), major.String(), degree, rating, language, exp.String(), specialty,
		models.VerificationVerified, p(argLimit))
}

// RankingArgs binds a request in the order BuildRankingQuery expects. Every
// array is non-nil so cardinality never sees NULL.
func RankingArgs(req models.MatchRequest, limit int) []interface{} {
	clusterIDs, clusterMajors := similarity.ClusterMembership()
	return []interface{}{
		pq.Array(similarity.NormalizeAll(req.TargetUniversities)),
		pq.Array(similarity.NormalizeAll(req.TargetMajors)),
		similarity.Normalize(string(req.DegreeLevel)),
		pq.Array(similarity.NormalizeAll(req.PreferredLanguages)),
		pq.Array(similarity.NormalizeAll(req.ServiceCategories)),
		pq.Array(clusterIDs),
		pq.Array(clusterMajors),
		pq.Array(similarity.DegreeOrder()),
		limit,
	}
}

func lit(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
