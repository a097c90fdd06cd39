package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/rules"
)

func newFilter(t *testing.T, opts ...Option) *Filter {
	t.Helper()
	f, err := New(nil, nil, opts...)
	require.NoError(t, err)
	return f
}

func lead(name, website string) model.Lead {
	return model.Lead{Name: name, Website: website, Confidence: model.ConfidenceExtracted}
}

func TestValidName(t *testing.T) {
	t.Parallel()
	f := newFilter(t)

	tests := []struct {
		name   string
		ok     bool
		reason string
	}{
		{"Silva & Associados Advocacia", true, ""},
		{"Os 10 melhores escritórios de advocacia", false, "ranking phrasing"},
		{"Top 5 pizzarias de SP", false, "ranking phrasing"},
		{"Como abrir um restaurante?", false, "question phrasing"},
		{"Salário de advogado em 2024", false, "invalid keyword: salário"},
		{"Vagas para dentista", false, "invalid keyword: vagas"},
		{"Curso de culinária italiana", false, "invalid keyword: curso"},
		{"Preços de pizza", false, "price phrasing"},
		{"Notícias do setor jurídico", false, "news phrasing"},
		{"Avaliações Pizzaria Bella", false, "review phrasing"},
		{"silva.wikipedia.org", false, "invalid keyword: wikipedia"},
		{"Advogados no youtube.com", false, "invalid keyword: youtube"},
		{"12345", false, "bare number"},
		{"(11) 3333-4444", false, "bare number"},
		{"AB", false, "name too short"},
		{"", false, "empty name"},
		{model.UnknownBusinessName, false, "unnamed record"},
		{"Especialista Estética Ltda", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := f.ValidName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestValidName_InvalidDomainSubstring(t *testing.T) {
	t.Parallel()

	fr := rules.DefaultFilters()
	fr.InvalidKeywords = nil
	f, err := New(fr, nil)
	require.NoError(t, err)

	ok, reason := f.ValidName("Perfil glassdoor.com.br Silva")
	assert.False(t, ok)
	assert.Equal(t, "invalid domain: glassdoor.com", reason)
}

func TestValidName_Strict(t *testing.T) {
	t.Parallel()
	f := newFilter(t, WithStrictNames())

	ok, reason := f.ValidName("Cantina Roma")
	assert.False(t, ok)
	assert.Equal(t, "no business pattern", reason)

	ok, _ = f.ValidName("Cantina Roma Restaurante")
	assert.True(t, ok)
}

func TestSectorRelevant(t *testing.T) {
	t.Parallel()
	f := newFilter(t)

	assert.True(t, f.SectorRelevant(lead("Silva & Associados Advocacia", ""), "advocacia"))
	assert.True(t, f.SectorRelevant(model.Lead{Name: "Silva", Description: "Escritório de advocacia trabalhista"}, "advocacia"))
	assert.False(t, f.SectorRelevant(lead("Pizzaria Bella", ""), "advocacia"))

	// Unknown sectors fall back to a literal match.
	assert.True(t, f.SectorRelevant(lead("Pet Shop Rex", ""), "pet shop"))
	assert.False(t, f.SectorRelevant(lead("Clínica Rex", ""), "pet shop"))
	assert.True(t, f.SectorRelevant(lead("Anything", ""), ""))
}

func TestQuality(t *testing.T) {
	t.Parallel()
	f := newFilter(t)

	assert.NoError(t, f.Quality(model.Lead{Name: "Silva", Phone: "(11) 3333-4444"}))

	err := f.Quality(model.Lead{Name: "Silva", Address: "Rua A, 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contact channel")

	err = f.Quality(model.Lead{Name: "Silva", Phone: "1133334444", Confidence: model.ConfidenceUnnamed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence 0.20 below 0.50")

	err = f.Quality(model.Lead{Name: "Silva", Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")
}

func TestApply_Scenarios(t *testing.T) {
	t.Parallel()
	f := newFilter(t)

	in := []model.Lead{
		lead("Os 10 melhores escritórios de advocacia", "https://ranking.com.br"),
		lead("Silva & Associados Advocacia", "https://x.com"),
		lead("SILVA & ASSOCIADOS ADVOCACIA", "https://x.com"),
		lead("Costa Advogados", "https://x.com/"),
		lead("Pizzaria Bella", "https://bella.com.br"),
		{Name: model.UnknownBusinessName, Phone: "(11) 3333-4444", Confidence: model.ConfidenceUnnamed},
		{Name: "Mendes Advocacia", Confidence: 1},
		lead("Souza Advocacia", "souza.adv.br"),
	}

	r := f.Evaluate(in, "advocacia")
	require.Len(t, r.Accepted, 2)
	assert.Equal(t, "Silva & Associados Advocacia", r.Accepted[0].Name)
	assert.Equal(t, "Souza Advocacia", r.Accepted[1].Name)
	assert.Equal(t, "https://souza.adv.br", r.Accepted[1].Website)

	gates := map[string]string{}
	for _, rej := range r.Rejected {
		gates[rej.Name] = rej.Gate + ": " + rej.Reason
	}
	assert.Equal(t, "name: ranking phrasing", gates["Os 10 melhores escritórios de advocacia"])
	assert.Equal(t, "dedup: duplicate name", gates["SILVA & ASSOCIADOS ADVOCACIA"])
	assert.Equal(t, "dedup: duplicate website", gates["Costa Advogados"])
	assert.Equal(t, "sector: no sector keyword", gates["Pizzaria Bella"])
	assert.Equal(t, "name: unnamed record", gates[model.UnknownBusinessName])
	assert.Equal(t, "quality: no contact channel", gates["Mendes Advocacia"])

	// Input is not modified.
	assert.Equal(t, "souza.adv.br", in[7].Website)
	assert.Equal(t, r.Accepted, f.Apply(in, "advocacia"))
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFilter(t)

	in := []model.Lead{
		lead("Cantina Roma Restaurante", "https://roma.com.br"),
		lead("cantina roma restaurante", ""),
		lead("Bella Pizzaria", "https://roma.com.br/"),
		lead("Pizzaria Napoli", "https://napoli.com.br"),
	}
	once := f.Apply(in, "restaurante")
	twice := f.Apply(once, "restaurante")
	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

func TestDedup(t *testing.T) {
	t.Parallel()

	in := []model.Lead{
		lead("Silva Ltda", "https://silva.com.br"),
		lead("Silva", "https://outro.com.br"),
		lead("Costa", "http://www.silva.com.br/"),
		lead("Mendes", ""),
		lead("Souza", ""),
	}
	out := Dedup(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"Silva Ltda", "Mendes", "Souza"}, []string{out[0].Name, out[1].Name, out[2].Name})
	assert.Equal(t, out, Dedup(out))
	assert.Empty(t, Dedup(nil))
}

func TestNew_BadPattern(t *testing.T) {
	t.Parallel()

	fr := rules.DefaultFilters()
	fr.InvalidPatterns = append(fr.InvalidPatterns, rules.PatternRule{Class: "broken", Pattern: "("})
	_, err := New(fr, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter: compile patterns")
}
