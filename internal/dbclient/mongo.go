package dbclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"banketl/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoConnector implements Connector for MongoDB. A "table" is a collection
// of documents whose keys follow the column order.
type mongoConnector struct {
	client *mongo.Client
	dbName string
}

// mongoQuery is the Extended JSON form of a read query:
//
//	{"collection": "Largest_banks", "filter": {...}, "projection": {...}, "sort": {...}}
type mongoQuery struct {
	Collection string `bson:"collection"`
	Operation  string `bson:"operation,omitempty"` // only "find"
	Filter     bson.D `bson:"filter,omitempty"`
	Projection bson.D `bson:"projection,omitempty"`
	Sort       bson.D `bson:"sort,omitempty"`
	Limit      int64  `bson:"limit,omitempty"`
}

// buildMongoURI returns the connection URI and database name for conn.
// Host may already be a full mongodb:// or mongodb+srv:// URI.
func buildMongoURI(conn *domain.DatabaseConnection) (string, string) {
	var uri string
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		// Replace <password> placeholder commonly found in Atlas connection strings
		if conn.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", conn.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", conn.Password)
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, conn.Password, conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}
	}

	dbName := conn.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of a mongo URI, or "test".
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "test"
}

func newMongoConnector(conn *domain.DatabaseConnection) (*mongoConnector, error) {
	uri, dbName := buildMongoURI(conn)
	slog.Debug("connecting to mongodb", "database", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName}, nil
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// toDocuments converts rows into ordered documents keyed by column name.
func toDocuments(columns []Column, rows [][]any) ([]any, error) {
	docs := make([]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(columns))
		}
		doc := make(bson.D, len(columns))
		for j, col := range columns {
			doc[j] = bson.E{Key: col.Name, Value: row[j]}
		}
		docs[i] = doc
	}
	return docs, nil
}

func (m *mongoConnector) ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any) (int, error) {
	if table == "" {
		return 0, fmt.Errorf("collection name is required")
	}
	docs, err := toDocuments(columns, rows)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(table)
	if err := coll.Drop(ctx); err != nil {
		return 0, fmt.Errorf("drop collection: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insertMany: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// parseMongoQuery decodes an Extended JSON query.
func parseMongoQuery(query string) (*mongoQuery, error) {
	var mq mongoQuery
	if err := bson.UnmarshalExtJSON([]byte(query), false, &mq); err != nil {
		return nil, fmt.Errorf("invalid query JSON: %w", err)
	}
	if mq.Collection == "" {
		return nil, fmt.Errorf("query must specify 'collection'")
	}
	if mq.Operation != "" && mq.Operation != "find" {
		return nil, fmt.Errorf("only find queries are allowed, got %q", mq.Operation)
	}
	return &mq, nil
}

func (m *mongoConnector) Query(ctx context.Context, query string) (*QueryPage, error) {
	mq, err := parseMongoQuery(query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find()
	if mq.Projection != nil {
		opts.SetProjection(mq.Projection)
	}
	if mq.Sort != nil {
		opts.SetSort(mq.Sort)
	}
	if mq.Limit > 0 {
		opts.SetLimit(mq.Limit)
	}
	filter := mq.Filter
	if filter == nil {
		filter = bson.D{}
	}

	cursor, err := m.client.Database(m.dbName).Collection(mq.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return documentsToPage(docs), nil
}

// documentsToPage flattens documents into rows. Columns follow first-seen
// key order; _id is dropped.
func documentsToPage(docs []bson.D) *QueryPage {
	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for _, elem := range doc {
			if elem.Key == "_id" || seen[elem.Key] {
				continue
			}
			seen[elem.Key] = true
			columns = append(columns, elem.Key)
		}
	}

	page := &QueryPage{Columns: columns}
	for _, doc := range docs {
		values := make(map[string]any, len(doc))
		for _, elem := range doc {
			values[elem.Key] = elem.Value
		}
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = values[col]
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
