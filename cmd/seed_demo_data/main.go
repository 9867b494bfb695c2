package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/features/user"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const demoPassword = "demo-password"

var (
	qualifications = []string{"MTA", "Biologist", "Student of medicine", "Chemist"}
	skills         = []string{"pcr", "qpcr", "elisa", "cell-culture", "sequencing", "pipetting"}
	cities         = []struct {
		name     string
		lat, lng float64
	}{
		{"Berlin", 52.52, 13.405},
		{"Hamburg", 53.551, 9.993},
		{"München", 48.137, 11.575},
		{"Köln", 50.937, 6.96},
	}
)

func jitter(r *rand.Rand) float64 {
	return (r.Float64() - 0.5) * 0.2
}

func demoUsers(r *rand.Rand, volunteers, labs int) []*models.User {
	verified := models.Verified{Mail: true, Manual: true}
	consent := models.Consent{PublicSearch: true, Processing: true}

	var users []*models.User
	for i := range volunteers {
		city := cities[i%len(cities)]
		users = append(users, &models.User{
			Role:     models.RoleVolunteer,
			Contact:  models.Contact{Email: fmt.Sprintf("volunteer%d@demo.labhive.local", i), Firstname: "Demo", Lastname: fmt.Sprintf("Volunteer %d", i)},
			Consent:  consent,
			Verified: verified,
			Location: models.NewGeoPoint(city.lat+jitter(r), city.lng+jitter(r)),
			Address:  models.Address{City: city.name},
			Details: &models.VolunteerDetails{
				Qualification: qualifications[r.Intn(len(qualifications))],
				Skills:        []string{skills[r.Intn(len(skills))], skills[r.Intn(len(skills))]},
				Availability:  models.Availability{Available: r.Intn(4) != 0, UpdatedAt: time.Now().UTC()},
			},
		})
	}
	for i := range labs {
		city := cities[i%len(cities)]
		role := models.RoleLabDiag
		var capacity *models.TestCapacity
		if i%3 == 2 {
			role = models.RoleLabResearch
		} else {
			total := 100 + r.Intn(900)
			capacity = &models.TestCapacity{Capacity: total, Used: r.Intn(total), UpdatedAt: time.Now().UTC()}
		}
		users = append(users, &models.User{
			Role:         role,
			Contact:      models.Contact{Email: fmt.Sprintf("lab%d@demo.labhive.local", i), Firstname: "Lab", Lastname: "Contact"},
			Consent:      consent,
			Verified:     verified,
			Location:     models.NewGeoPoint(city.lat+jitter(r), city.lng+jitter(r)),
			Address:      models.Address{City: city.name},
			Organization: fmt.Sprintf("Demo Lab %s %d", city.name, i),
			Offers:       []string{"pcr"},
			TestCapacity: capacity,
		})
	}
	return users
}

func main() {
	volunteers := flag.Int("volunteers", 40, "number of demo volunteers")
	labs := flag.Int("labs", 12, "number of demo labs")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Production {
		log.Fatal("refusing to seed demo data in production")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())
	mongodb := &database.MongodbDB{Client: client, DB: client.Database(cfg.DBName)}

	users := user.NewUserService(user.NewUserRepository(mongodb), user.NewAdminRepository(mongodb), zap.NewNop())

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		log.Fatal(err)
	}

	created, skipped := 0, 0
	for _, u := range demoUsers(rand.New(rand.NewSource(*seed)), *volunteers, *labs) {
		u.Password = hash
		name := u.Contact.FullName()
		if u.Role.IsLab() {
			name = u.Organization
		}
		u.Slug = utils.ProfileSlug(name)

		switch err := users.CreateUser(ctx, u); {
		case errors.Is(err, user.ErrEmailTaken):
			skipped++
		case err != nil:
			log.Fatalf("create %s: %v", u.Contact.Email, err)
		default:
			created++
		}
	}
	log.Printf("Demo data: %d users created, %d already present (password %q)", created, skipped, demoPassword)
}
