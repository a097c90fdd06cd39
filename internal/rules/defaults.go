package rules

// DefaultSectors returns the built-in sector table.
func DefaultSectors() *SectorTable {
	return &SectorTable{Sectors: []Sector{
		{
			Name:        "manufatura",
			Priority:    "high",
			TargetScore: 85,
			Keywords:    []string{"manufatura", "indústria", "fábrica", "metalúrgica", "usinagem", "fabricação", "industrial"},
			PainPoints:  []string{"Controle de produção em planilhas", "Falta de rastreabilidade", "Manutenção reativa"},
			Opportunities: []string{
				"Sistema MES para controle de produção",
				"Manutenção preditiva com IoT",
				"Integração ERP com chão de fábrica",
				"Rastreabilidade de lotes",
			},
		},
		{
			Name:        "logística",
			Priority:    "high",
			TargetScore: 80,
			Keywords:    []string{"transportadora", "logística", "transporte de cargas", "frete", "distribuidora", "armazenagem"},
			PainPoints:  []string{"Rastreamento manual de entregas", "Roteirização ineficiente"},
			Opportunities: []string{
				"Rastreamento de frota em tempo real",
				"Roteirização inteligente",
				"Portal de acompanhamento para clientes",
			},
		},
		{
			Name:        "saúde",
			Priority:    "high",
			TargetScore: 80,
			Keywords:    []string{"clínica", "consultório", "odontologia", "dentista", "laboratório", "hospital", "fisioterapia"},
			PainPoints:  []string{"Prontuários em papel", "Agendamento por telefone", "Faturamento de convênios manual"},
			Opportunities: []string{
				"Prontuário eletrônico",
				"Agendamento online",
				"Telemedicina",
				"Gestão de convênios integrada",
			},
		},
		{
			Name:        "advocacia",
			Priority:    "medium",
			TargetScore: 75,
			Keywords:    []string{"advocacia", "advogado", "advogados", "escritório de advocacia", "jurídico", "associados"},
			PainPoints:  []string{"Controle de prazos manual", "Documentos em papel"},
			Opportunities: []string{
				"Gestão de processos e prazos",
				"Assinatura digital de documentos",
				"Portal do cliente",
			},
		},
		{
			Name:        "contabilidade",
			Priority:    "medium",
			TargetScore: 75,
			Keywords:    []string{"contabilidade", "contador", "contábil", "escritório contábil"},
			PainPoints:  []string{"Recebimento de documentos por e-mail", "Retrabalho em lançamentos"},
			Opportunities: []string{
				"Automação de lançamentos contábeis",
				"Portal de documentos para clientes",
				"Integração bancária automática",
			},
		},
		{
			Name:        "restaurante",
			Priority:    "medium",
			TargetScore: 70,
			Keywords:    []string{"restaurante", "pizzaria", "churrascaria", "lanchonete", "hamburgueria", "cafeteria", "padaria"},
			PainPoints:  []string{"Pedidos anotados em papel", "Controle de estoque manual"},
			Opportunities: []string{
				"Cardápio digital",
				"Sistema de pedidos online",
				"Gestão de delivery integrada",
				"Controle de estoque automatizado",
			},
		},
		{
			Name:        "varejo",
			Priority:    "medium",
			TargetScore: 70,
			Keywords:    []string{"varejo", "loja", "comércio", "magazine", "supermercado", "mercado"},
			PainPoints:  []string{"Estoque desatualizado", "Vendas apenas presenciais"},
			Opportunities: []string{
				"E-commerce integrado à loja física",
				"Gestão de estoque omnichannel",
				"Programa de fidelidade digital",
			},
		},
		{
			Name:        "construção",
			Priority:    "medium",
			TargetScore: 70,
			Keywords:    []string{"construtora", "construção", "incorporadora", "engenharia civil", "reformas"},
			PainPoints:  []string{"Orçamentos em planilhas", "Acompanhamento de obra sem registro"},
			Opportunities: []string{
				"Gestão de obras em nuvem",
				"Orçamentação automatizada",
				"Diário de obra digital",
			},
		},
		{
			Name:        "imobiliária",
			Priority:    "low",
			TargetScore: 65,
			Keywords:    []string{"imobiliária", "imóveis", "corretora de imóveis", "corretor"},
			PainPoints:  []string{"Cadastro de imóveis desatualizado"},
			Opportunities: []string{
				"CRM imobiliário",
				"Tour virtual de imóveis",
				"Assinatura digital de contratos",
			},
		},
		{
			Name:        "beleza",
			Priority:    "low",
			TargetScore: 55,
			Keywords:    []string{"salão de beleza", "barbearia", "estética", "spa", "manicure"},
			PainPoints:  []string{"Agenda em papel"},
			Opportunities: []string{
				"Agendamento online",
				"Lembretes automáticos por WhatsApp",
			},
		},
	}}
}

// DefaultFilters returns the built-in filter rules. Patterns run against
// folded text, so they are written without accents.
func DefaultFilters() *FilterRules {
	return &FilterRules{
		InvalidKeywords: []string{
			"wikipedia", "wiki", "youtube", "facebook", "instagram", "twitter",
			"linkedin", "google", "maps", "search", "resultado", "resultados",
			"glassdoor", "indeed", "monster", "vagas", "emprego", "carreira",
			"salário", "job", "career", "salary",
			"melhores empresas", "top empresas", "ranking", "lista",
			"como consultar", "passo a passo", "guia", "tutorial",
			"universidade", "faculdade", "curso", "educação",
			"blog", "artigo", "notícia", "reportagem",
		},
		InvalidDomains: []string{
			"wikipedia.org", "wikimedia.org", "youtube.com", "youtu.be",
			"facebook.com", "fb.com", "instagram.com", "twitter.com", "x.com",
			"linkedin.com", "google.com", "google.com.br", "maps.google.com",
			"glassdoor.com", "glassdoor.com.br", "indeed.com", "monster.com",
			"vagas.com", "vagas.com.br", "empregos.com.br", "reclameaqui.com.br",
		},
		InvalidPatterns: []PatternRule{
			{Class: "search", Pattern: `\b(resultados?\s+(para|de)|pesquisa|buscar?)\b`},
			{Class: "question", Pattern: `\?|\b(como|quando|onde|qual|quais|por que)\b`},
			{Class: "ranking", Pattern: `\b(os|as)\s+\d+\b`},
			{Class: "ranking", Pattern: `\b(top|melhores)\s+\d+\b`},
			{Class: "ranking", Pattern: `\b(os|as)\s+melhores\b`},
			{Class: "ranking", Pattern: `\b(ranking|lista|classificacao)\b`},
			{Class: "howto", Pattern: `\b(passo\s+a\s+passo|tutorial|guia|dicas)\b`},
			{Class: "analysis", Pattern: `\b(analise|estudo|reportagem)\b`},
			{Class: "news", Pattern: `\b(noticias?|artigo|blog|post|forum|discussao)\b`},
			{Class: "review", Pattern: `\b(avaliacao|avaliacoes|review|reviews|critica|comparacao)\b`},
			{Class: "price", Pattern: `\b(precos?|custo|orcamento|salarios?|quanto\s+custa)\b`},
			{Class: "job", Pattern: `\b(vagas?|emprego|empregos|carreira|trabalhe\s+conosco|job)\b`},
			{Class: "education", Pattern: `\b(universidade|faculdade|curso|cursos|educacao|estudante|aluno|professor|academico)\b`},
		},
		ValidBusinessPatterns: []string{
			"advocacia", "advogados", "escritório", "restaurante", "pizzaria",
			"churrascaria", "padaria", "farmácia", "drogaria", "clínica",
			"academia", "fitness", "salão", "beleza", "estética", "imobiliária",
			"imóveis", "consultoria", "assessoria", "empresarial", "consultório",
			"ltda", "eireli", "comércio", "indústria", "serviços",
			"associados", "grupo", "companhia", "cia", "loja", "studio",
			"oficina", "transportadora", "construtora", "contabilidade",
		},
		UIBlocklist: []string{
			"menu", "navegar", "buscar", "pesquisar", "resultados", "página",
			"anterior", "próximo", "próxima", "mais", "ver mais", "clique",
			"filtros", "ordenar", "compartilhar", "ajuda", "sobre", "contato",
			"política", "termos", "privacidade", "cookies", "anúncio",
			"patrocinado", "entrar", "login", "cadastre-se", "mapa",
			"rotas", "salvar", "avaliações", "horário", "aberto", "fechado",
			"sign in", "next", "previous", "help", "settings", "feedback",
		},
		MinNameLength: 3,
		MaxNameLength: 100,
		MinConfidence: 0.5,
	}
}

// DefaultScoring returns the built-in scoring tables.
func DefaultScoring() *ScoringRules {
	return &ScoringRules{
		Weights: Weights{
			Sector:     0.25,
			Size:       0.15,
			Digital:    0.20,
			Region:     0.10,
			Indicators: 0.20,
			Contact:    0.10,
		},
		Regions: []KeywordPoints{
			{"são paulo", 25},
			{"rio de janeiro", 20},
			{"minas gerais", 15},
			{"belo horizonte", 15},
			{"rio grande do sul", 15},
			{"porto alegre", 15},
			{"paraná", 15},
			{"curitiba", 15},
			{"santa catarina", 15},
			{"florianópolis", 15},
			{"goiás", 10},
			{"bahia", 10},
			{"pernambuco", 10},
			{"ceará", 10},
			{"pará", 5},
			{"amazonas", 5},
			{"brasil", 15},
		},
		DefaultRegionScore: 10,
		Indicators: []KeywordPoints{
			// Digitalization signals.
			{"legacy", 30},
			{"sistema antigo", 35},
			{"planilha excel", 25},
			{"processo manual", 30},
			{"papel", 20},
			{"digitalização", 25},
			{"automação", 35},
			{"integração", 30},
			{"migração", 35},
			{"nuvem", 30},
			{"cloud", 30},
			{"backup", 20},
			{"erp", 35},
			{"crm", 30},
			{"api", 30},
			{"web", 20},
			{"app", 20},
			{"aplicativo", 20},
			{"sistema", 25},
			{"plataforma", 25},
			{"portal", 20},
			{"dashboard", 25},
			{"relatório", 20},
			{"analytics", 30},
			{"business intelligence", 35},
			{"inteligência artificial", 35},
			{"iot", 30},
			{"transformação digital", 40},
			{"expansão", 25},
			// Pain points.
			{"sistema lento", 30},
			{"erro humano", 25},
			{"falta de integração", 30},
			{"custo alto", 25},
			{"falta de automação", 30},
			{"processo burocrático", 25},
			{"dados desatualizados", 25},
			{"sem integração", 30},
			{"agenda em papel", 25},
			{"controle manual", 25},
			// Opportunities.
			{"e-commerce", 30},
			{"marketplace", 30},
			{"omnichannel", 35},
			{"telemedicina", 35},
			{"prontuário eletrônico", 35},
			{"agendamento online", 25},
			{"gestão de estoque", 30},
			{"marketing digital", 25},
			{"presença digital", 25},
			// Traditional businesses.
			{"indústria", 30},
			{"manufatura", 35},
			{"fábrica", 35},
			{"varejo", 30},
			{"comércio", 30},
			{"hospital", 35},
			{"clínica", 30},
			{"advocacia", 30},
			{"imobiliária", 25},
			{"logística", 30},
			{"transporte", 30},
			{"restaurante", 25},
			{"salão", 20},
			{"academia", 20},
			{"concessionária", 25},
			{"fazenda", 30},
			// Technology companies are competitors.
			{"software", -20},
			{"desenvolvimento", -20},
			{"programação", -20},
			{"tecnologia", -25},
			{"ti", -25},
			{"fintech", -20},
			{"consultoria em ti", -30},
			{"empresa de software", -25},
		},
		TechIndicators: []string{
			"software", "desenvolvimento", "programação", "tecnologia", "ti",
			"startup tech", "fintech", "consultoria em ti", "sistemas",
		},
		TechPenalty:        -30,
		DefaultSectorScore: 30,
		SizeKeywords: []KeywordPoints{
			{"grande", 40},
			{"large", 40},
			{"500+", 40},
			{"1000+", 40},
			{"média", 30},
			{"médio", 30},
			{"medium", 30},
			{"100+", 30},
			{"pequena", 20},
			{"pequeno", 20},
			{"small", 20},
			{"10+", 20},
			{"micro", 20},
		},
		PersonalEmailDomains: []string{
			"gmail.com", "hotmail.com", "yahoo.com", "yahoo.com.br",
			"outlook.com", "live.com", "bol.com.br", "uol.com.br", "icloud.com",
		},
		ModernWebsiteIndicators: []string{"https", "www", ".com", ".com.br", ".org", ".net"},
	}
}
