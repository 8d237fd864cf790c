package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

// AvailabilityRepository stores one document per listing calendar. Saves are
// conditional on the version that was loaded.
type AvailabilityRepository struct {
	col                *mongo.Collection
	cleaningBufferDays int
}

func NewAvailabilityRepository(db *mongo.Database, cleaningBufferDays int) *AvailabilityRepository {
	return &AvailabilityRepository{col: db.Collection("agg_availability"), cleaningBufferDays: cleaningBufferDays}
}

func (r *AvailabilityRepository) Calendar(ctx context.Context, id domainavailability.ListingID) (*domainavailability.AvailabilityCalendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id, r.cleaningBufferDays), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, cal *domainavailability.AvailabilityCalendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainavailability.ErrVersionConflict
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID                 string          `bson:"_id"`
	Blocks             []blockDocument `bson:"blocks"`
	CleaningBufferDays int             `bson:"cleaning_buffer_days"`
	Version            int64           `bson:"version"`
	UpdatedAt          int64           `bson:"updated_at"`
}

// blockDocument keeps days as YYYY-MM-DD so the stored calendar is readable
// and free of zone offsets.
type blockDocument struct {
	From      string `bson:"from"`
	To        string `bson:"to"`
	Reason    string `bson:"reason"`
	Reference string `bson:"reference"`
	CreatedAt int64  `bson:"created_at"`
}

func newCalendarDocument(cal *domainavailability.AvailabilityCalendar) calendarDocument {
	blocks := make([]blockDocument, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, blockDocument{
			From:      daterange.FormatDay(b.Range.CheckIn),
			To:        daterange.FormatDay(b.Range.CheckOut),
			Reason:    string(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt.UnixMilli(),
		})
	}
	return calendarDocument{
		ID:                 string(cal.ListingID),
		Blocks:             blocks,
		CleaningBufferDays: cal.CleaningBufferDays,
		Version:            cal.Version,
		UpdatedAt:          time.Now().UTC().UnixMilli(),
	}
}

func (d calendarDocument) toAggregate() *domainavailability.AvailabilityCalendar {
	cal := domainavailability.NewCalendar(domainavailability.ListingID(d.ID), d.CleaningBufferDays)
	cal.Version = d.Version
	for _, b := range d.Blocks {
		from, errFrom := daterange.ParseDay(b.From, time.UTC)
		to, errTo := daterange.ParseDay(b.To, time.UTC)
		if errFrom != nil || errTo != nil {
			continue
		}
		cal.Blocks = append(cal.Blocks, domainavailability.Block{
			Range:     daterange.DateRange{CheckIn: from, CheckOut: to},
			Reason:    domainavailability.BlockReason(b.Reason),
			Reference: b.Reference,
			CreatedAt: time.UnixMilli(b.CreatedAt).UTC(),
		})
	}
	return cal
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
