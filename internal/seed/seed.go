// Package seed loads the demonstration tenant: users, pipeline stages,
// clients, orders with their movement history, and a few notifications.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/repository"
)

// TenantID identifies the demonstration tenant.
const TenantID = "tenant-demo"

// Stage ids referenced by the demo data.
const (
	StageLead     = "etapa-lead"
	StageSale     = "etapa-venda"
	StagePayment  = "etapa-pagamento"
	StageProduce  = "etapa-producao"
	StageDispatch = "etapa-expedicao"
	StageDelivery = "etapa-entrega"
)

// User ids referenced by the demo data.
const (
	UserAdmin      = "user-admin"
	UserSupervisor = "user-supervisor"
	UserOperator   = "user-operador"
	UserReader     = "user-leitor"
)

// Stores are the repositories the demo data is written to.
type Stores struct {
	Tenants       repository.TenantRepository
	Users         repository.UserRepository
	Clients       repository.ClientRepository
	Stages        repository.StageRepository
	Orders        repository.OrderRepository
	Notifications repository.NotificationRepository
}

// Options tune the load.
type Options struct {
	BcryptCost       int
	FictitiousOrders int
	Now              time.Time
	// Rand drives the fictitious order generator. Nil seeds from Now.
	Rand *rand.Rand
}

// Summary counts what was loaded.
type Summary struct {
	Users         int
	Stages        int
	Clients       int
	Orders        int
	Notifications int
}

type demoUser struct {
	user     domain.User
	password string
}

// Load writes the demo tenant into stores.
func Load(ctx context.Context, stores Stores, opts Options) (Summary, error) {
	var sum Summary
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	now := opts.Now

	if err := stores.Tenants.Create(ctx, Tenant()); err != nil {
		return sum, fmt.Errorf("seed tenant: %w", err)
	}

	for _, du := range users(now) {
		hash, err := auth.HashPassword(du.password, opts.BcryptCost)
		if err != nil {
			return sum, fmt.Errorf("seed user %s: %w", du.user.ID, err)
		}
		u := du.user
		u.PasswordHash = hash
		if err := stores.Users.Create(ctx, &u); err != nil {
			return sum, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		sum.Users++
	}

	stages := Stages()
	for i := range stages {
		if err := stores.Stages.Create(ctx, &stages[i]); err != nil {
			return sum, fmt.Errorf("seed stage %s: %w", stages[i].ID, err)
		}
		sum.Stages++
	}

	clients := Clients()
	for i := range clients {
		if err := stores.Clients.Create(ctx, &clients[i]); err != nil {
			return sum, fmt.Errorf("seed client %s: %w", clients[i].ID, err)
		}
		sum.Clients++
	}

	orders := Orders()
	if opts.FictitiousOrders > 0 {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(now.UnixNano()))
		}
		orders = append(orders, Fictitious(opts.FictitiousOrders, now, clients, stages, rng)...)
	}
	for i := range orders {
		if err := stores.Orders.Create(ctx, &orders[i]); err != nil {
			return sum, fmt.Errorf("seed order %s: %w", orders[i].Number, err)
		}
		sum.Orders++
	}

	for _, n := range notifications(now) {
		n := n
		if err := stores.Notifications.Create(ctx, &n); err != nil {
			return sum, fmt.Errorf("seed notification %s: %w", n.ID, err)
		}
		sum.Notifications++
	}
	return sum, nil
}

// Tenant returns the demo tenant.
func Tenant() *domain.Tenant {
	return &domain.Tenant{
		ID:             TenantID,
		Name:           "ProcessFlow Demo",
		Domain:         "demo.processflow.com",
		PrimaryColor:   "#3B82F6",
		SecondaryColor: "#64748B",
		Active:         true,
		CreatedAt:      day(2024, 1, 1),
		Limits: domain.TenantLimits{
			AllowCustomization: true,
			MaxUsers:           100,
			MaxOrders:          1000,
		},
	}
}

func users(now time.Time) []demoUser {
	lastLogin := now
	base := day(2024, 1, 1)
	return []demoUser{
		{password: "admin", user: domain.User{
			ID: UserAdmin, TenantID: TenantID, Name: "Administrador", Email: "admin@processflow.com",
			Role: domain.RoleAdmin, Sector: "TI", Team: "Gestão", Active: true, CreatedAt: base, LastLoginAt: &lastLogin,
		}},
		{password: "supervisor", user: domain.User{
			ID: UserSupervisor, TenantID: TenantID, Name: "João Supervisor", Email: "supervisor@processflow.com",
			Role: domain.RoleSupervisor, Sector: "Vendas", Team: "Comercial", Active: true, CreatedAt: base,
		}},
		{password: "operador", user: domain.User{
			ID: UserOperator, TenantID: TenantID, Name: "Maria Operadora", Email: "operador@processflow.com",
			Role: domain.RoleOperator, Sector: "Produção", Team: "Manufatura", Active: true, CreatedAt: base,
		}},
		{password: "cliente", user: domain.User{
			ID: UserReader, TenantID: TenantID, Name: "Cliente Exemplo", Email: "cliente@processflow.com",
			Role: domain.RoleReader, Sector: "Cliente", Team: "Externo", Active: true, CreatedAt: base,
			LinkedClientIDs: []string{"cliente-001", "cliente-002"},
		}},
	}
}

// Stages returns the default six-step pipeline. Delivery is the terminal stage.
func Stages() []domain.Stage {
	mk := func(id, name, desc, color string, order, notifyAfter int, editable bool) domain.Stage {
		return domain.Stage{
			ID: id, TenantID: TenantID, Name: name, Description: desc, Color: color, Order: order, Active: true,
			Config: domain.StageConfig{Editable: editable, NotifyAfterDays: notifyAfter, Mandatory: true},
		}
	}
	stages := []domain.Stage{
		mk(StageLead, "Lead", "Prospects e oportunidades iniciais", "#F59E0B", 1, 3, true),
		mk(StageSale, "Venda", "Negociação e fechamento", "#3B82F6", 2, 5, true),
		mk(StagePayment, "Pagamento", "Cobrança e recebimento", "#10B981", 3, 7, true),
		mk(StageProduce, "Produção", "Fabricação do produto", "#8B5CF6", 4, 10, true),
		mk(StageDispatch, "Expedição", "Preparação para envio", "#F97316", 5, 2, true),
		mk(StageDelivery, "Entregue", "Entrega ao cliente final", "#059669", 6, 0, false),
	}
	stages[5].IsTerminal = true
	return stages
}

// Clients returns the demo customers.
func Clients() []domain.Client {
	mk := func(id, name, email, phone, address, doc, notes string, created time.Time) domain.Client {
		return domain.Client{
			ID: id, TenantID: TenantID, Name: name, Email: email, Phone: phone, Address: address,
			Document: doc, Notes: notes, Active: true, CreatedAt: created,
		}
	}
	return []domain.Client{
		mk("cliente-001", "Empresa ABC Ltda", "contato@empresaabc.com", "(11) 9999-9999",
			"Rua das Empresas, 123 - São Paulo/SP", "12.345.678/0001-90", "Cliente preferencial", day(2024, 1, 1)),
		mk("cliente-002", "Comercial XYZ", "vendas@comercialxyz.com", "(11) 8888-8888",
			"Av. Comercial, 456 - São Paulo/SP", "98.765.432/0001-10", "", day(2024, 1, 5)),
		mk("cliente-003", "Indústria DEF S.A.", "compras@industriadef.com", "(11) 7777-7777",
			"Distrito Industrial, 789 - São Paulo/SP", "11.222.333/0001-44", "Pagamento sempre à vista", day(2024, 1, 10)),
		mk("cliente-004", "Startup GHI", "tech@startupghi.com", "(11) 6666-6666",
			"Hub de Inovação, 101 - São Paulo/SP", "55.666.777/0001-88", "Startup de tecnologia", day(2024, 1, 15)),
		mk("cliente-005", "Consultoria JKL", "projetos@consultoriajkl.com", "(11) 5555-5555",
			"Centro Empresarial, 202 - São Paulo/SP", "99.888.777/0001-66", "Parceiro estratégico", day(2024, 1, 20)),
	}
}

type step struct {
	stage   string
	actor   string
	at      time.Time
	comment string
}

var actorNames = map[string]string{
	UserAdmin:      "Administrador",
	UserSupervisor: "João Supervisor",
	UserOperator:   "Maria Operadora",
}

func history(orderID string, steps ...step) []domain.MovementRecord {
	out := make([]domain.MovementRecord, 0, len(steps))
	prev := ""
	for i, s := range steps {
		out = append(out, domain.MovementRecord{
			ID:              fmt.Sprintf("hist-%s-%d", orderID[len(orderID)-3:], i+1),
			OrderID:         orderID,
			PreviousStageID: prev,
			NewStageID:      s.stage,
			ActorID:         s.actor,
			ActorName:       actorNames[s.actor],
			At:              s.at,
			Comment:         s.comment,
		})
		prev = s.stage
	}
	return out
}

// Orders returns the five demo orders. Every order's current stage matches
// the last entry of its history.
func Orders() []domain.Order {
	paid1, paid3, paid5 := day(2024, 1, 20), day(2024, 1, 30), day(2024, 2, 5)
	delivered5 := day(2024, 2, 10)
	return []domain.Order{
		{
			ID: "processo-001", TenantID: TenantID, Number: "PED-2024-001", ClientID: "cliente-001", ClientName: "Empresa ABC Ltda",
			Seller: "Carlos Vendedor", SaleDate: day(2024, 1, 15), FirstPaymentDate: &paid1, ExpectedDelivery: day(2024, 2, 15),
			Product: "Sistema de Gestão Personalizado", Quantity: 1, Packaging: "Digital", FreightType: "Email",
			CurrentStageID: StageProduce, Location: domain.LocationHall,
			Notes: "Cliente preferencial, priorizar entrega", Priority: domain.PriorityHigh,
			TotalValue: decimal.NewFromInt(15000), ResponsibleUserID: UserOperator, Tags: []string{"vip", "customizado"},
			CreatedAt: day(2024, 1, 10), UpdatedAt: day(2024, 1, 25),
			History: history("processo-001",
				step{StageLead, UserSupervisor, day(2024, 1, 10), "Lead recebido via website"},
				step{StageSale, UserSupervisor, day(2024, 1, 15), "Venda fechada após demonstração"},
				step{StagePayment, UserSupervisor, day(2024, 1, 20), "Primeira parcela recebida"},
				step{StageProduce, UserOperator, day(2024, 1, 25), "Produção iniciada"},
			),
		},
		{
			ID: "processo-002", TenantID: TenantID, Number: "PED-2024-002", ClientID: "cliente-002", ClientName: "Comercial XYZ",
			Seller: "Ana Silva", SaleDate: day(2024, 1, 20), ExpectedDelivery: day(2024, 2, 20),
			Product: "Website Institucional", Quantity: 1, Packaging: "Digital", FreightType: "Online",
			CurrentStageID: StageSale, Location: domain.LocationYard, Courtesies: []string{"Design extra"},
			Notes: "Aguardando aprovação final do layout", Priority: domain.PriorityNormal,
			TotalValue: decimal.NewFromInt(8500), ResponsibleUserID: UserSupervisor, Tags: []string{"website", "design"},
			CreatedAt: day(2024, 1, 18), UpdatedAt: day(2024, 1, 20),
			History: history("processo-002",
				step{StageLead, UserSupervisor, day(2024, 1, 18), "Contato via telefone"},
				step{StageSale, UserSupervisor, day(2024, 1, 20), "Proposta aceita"},
			),
		},
		{
			ID: "processo-003", TenantID: TenantID, Number: "PED-2024-003", ClientID: "cliente-003", ClientName: "Indústria DEF S.A.",
			Seller: "Pedro Santos", SaleDate: day(2024, 1, 25), FirstPaymentDate: &paid3, ExpectedDelivery: day(2024, 3, 1),
			Product: "Automação Industrial", Quantity: 3, Packaging: "Caixa reforçada", FreightType: "Transportadora",
			CurrentStageID: StagePayment, Location: domain.LocationStreet, Shortages: []string{"Manual técnico"},
			Notes: "Instalação agendada para março", Priority: domain.PriorityUrgent,
			TotalValue: decimal.NewFromInt(45000), ResponsibleUserID: UserSupervisor, Tags: []string{"industrial", "licitacao"},
			CreatedAt: day(2024, 1, 22), UpdatedAt: day(2024, 1, 30),
			History: history("processo-003",
				step{StageLead, UserSupervisor, day(2024, 1, 22), "Licitação pública"},
				step{StageSale, UserSupervisor, day(2024, 1, 25), "Contrato assinado"},
				step{StagePayment, UserSupervisor, day(2024, 1, 30), "Entrada recebida"},
			),
		},
		{
			ID: "processo-004", TenantID: TenantID, Number: "PED-2024-004", ClientID: "cliente-004", ClientName: "Startup GHI",
			Seller: "Lucas Oliveira", SaleDate: day(2024, 2, 1), ExpectedDelivery: day(2024, 2, 28),
			Product: "App Mobile", Quantity: 1, Packaging: "Digital", FreightType: "App Store",
			CurrentStageID: StageLead, Location: domain.LocationYard, Courtesies: []string{"Suporte 3 meses"},
			Notes: "Primeira versão MVP", Priority: domain.PriorityNormal,
			TotalValue: decimal.NewFromInt(25000), ResponsibleUserID: UserSupervisor, Tags: []string{"mobile", "mvp", "startup"},
			CreatedAt: day(2024, 2, 1), UpdatedAt: day(2024, 2, 1),
			History: history("processo-004",
				step{StageLead, UserSupervisor, day(2024, 2, 1), "Reunião inicial realizada"},
			),
		},
		{
			ID: "processo-005", TenantID: TenantID, Number: "PED-2024-005", ClientID: "cliente-005", ClientName: "Consultoria JKL",
			Seller: "Fernanda Costa", SaleDate: day(2024, 1, 28), FirstPaymentDate: &paid5, ExpectedDelivery: day(2024, 2, 10),
			Product: "Treinamento Corporativo", Quantity: 1, Packaging: "Presencial", FreightType: "In-loco",
			CurrentStageID: StageDelivery, Location: domain.LocationDelivered, DeliveredAt: &delivered5,
			Notes: "Treinamento concluído com sucesso", Priority: domain.PriorityNormal,
			TotalValue: decimal.NewFromInt(12000), ResponsibleUserID: UserSupervisor, Tags: []string{"treinamento", "concluido"},
			CreatedAt: day(2024, 1, 25), UpdatedAt: day(2024, 2, 10),
			History: history("processo-005",
				step{StageLead, UserSupervisor, day(2024, 1, 25), "Indicação de cliente"},
				step{StageSale, UserSupervisor, day(2024, 1, 28), "Fechamento rápido"},
				step{StagePayment, UserSupervisor, day(2024, 2, 5), "Pagamento à vista"},
				step{StageProduce, UserOperator, day(2024, 2, 6), "Material preparado"},
				step{StageDispatch, UserOperator, day(2024, 2, 9), "Pronto para entrega"},
				step{StageDelivery, UserSupervisor, day(2024, 2, 10), "Treinamento realizado com sucesso"},
			),
		},
	}
}

var fictitiousProducts = []string{
	"Sistema ERP Completo",
	"Website Responsivo",
	"Aplicativo Mobile",
	"Consultoria Estratégica",
	"Automação de Marketing",
	"Integração de APIs",
	"Dashboard Analítico",
	"Plataforma E-commerce",
	"Sistema de Gestão",
	"Chatbot Inteligente",
}

// Fictitious generates n orders spread over the current month, each placed
// directly in a random stage with a single history entry.
func Fictitious(n int, now time.Time, clients []domain.Client, stages []domain.Stage, rng *rand.Rand) []domain.Order {
	if len(clients) == 0 || len(stages) == 0 {
		return nil
	}
	year, month, _ := now.Date()
	out := make([]domain.Order, 0, n)
	for i := 1; i <= n; i++ {
		sale := time.Date(year, month, rng.Intn(28)+1, 0, 0, 0, 0, time.UTC)
		expected := sale.AddDate(0, 0, rng.Intn(25)+5)
		client := clients[rng.Intn(len(clients))]
		stage := stages[rng.Intn(len(stages))]

		seller, responsible := "Carlos Vendedor", UserOperator
		if i%2 == 0 {
			seller, responsible = "Ana Silva", UserSupervisor
		}
		packaging := "Caixa padrão"
		if i%3 == 0 {
			packaging = "Digital"
		}
		freight := "Transportadora"
		if i%4 == 0 {
			freight = "Digital"
		}
		priority := domain.PriorityNormal
		if i%3 == 0 {
			priority = domain.PriorityHigh
		}

		id := fmt.Sprintf("processo-ficticio-%d", i)
		order := domain.Order{
			ID: id, TenantID: TenantID, Number: fmt.Sprintf("PED-%d-%d", year, 100+i),
			ClientID: client.ID, ClientName: client.Name, Seller: seller,
			SaleDate: sale, ExpectedDelivery: expected,
			Product: fictitiousProducts[rng.Intn(len(fictitiousProducts))], Quantity: rng.Intn(5) + 1,
			Packaging: packaging, FreightType: freight,
			CurrentStageID: stage.ID, Location: domain.LocationYard,
			Notes: "Processo fictício gerado para demonstração do calendário", Priority: priority,
			TotalValue: decimal.NewFromInt(int64(rng.Intn(49000) + 1000)), ResponsibleUserID: responsible,
			Tags:      []string{"demo"},
			CreatedAt: sale, UpdatedAt: sale,
			History: []domain.MovementRecord{{
				ID: fmt.Sprintf("hist-ficticio-%d", i), OrderID: id, NewStageID: stage.ID,
				ActorID: UserAdmin, ActorName: actorNames[UserAdmin], At: sale, Automatic: true,
				Comment: "Processo gerado automaticamente", NewLoc: domain.LocationYard,
			}},
		}
		if stage.IsTerminal {
			delivered := expected
			order.DeliveredAt = &delivered
			order.Location = domain.LocationDelivered
			order.History[0].NewLoc = domain.LocationDelivered
		}
		out = append(out, order)
	}
	return out
}

func notifications(now time.Time) []domain.Notification {
	return []domain.Notification{
		{
			ID: "notif-001", TenantID: TenantID, Kind: domain.NotificationOverdue, Title: "Processo Atrasado",
			Message: "O pedido PED-2024-001 está com a entrega atrasada há 2 dias",
			OrderID: "processo-001", UserID: UserSupervisor, CreatedAt: now,
		},
		{
			ID: "notif-002", TenantID: TenantID, Kind: domain.NotificationStalled, Title: "Processo Parado",
			Message: "O pedido PED-2024-002 está parado na etapa de Venda há 5 dias",
			OrderID: "processo-002", UserID: UserSupervisor, CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "notif-003", TenantID: TenantID, Kind: domain.NotificationDue, Title: "Pagamento Vencendo",
			Message: "O pagamento do pedido PED-2024-003 vence em 2 dias",
			OrderID: "processo-003", UserID: UserAdmin, Read: true, CreatedAt: now.Add(-24 * time.Hour),
		},
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
