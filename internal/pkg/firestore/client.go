package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// NewClient inicializa o cliente Firestore.
// Com credentialsFile vazio usa as Application Default Credentials.
func NewClient(ctx context.Context, projectID string, credentialsFile string) (*gfs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar o cliente firestore (projeto %s): %w", projectID, err)
	}
	return client, nil
}

// AsInt converte os números devolvidos pelo Firestore (int64 ou float64) e
// strings numéricas. O segundo retorno é false quando o valor não é numérico.
func AsInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		var out int
		if _, err := fmt.Sscanf(n, "%d", &out); err == nil {
			return out, true
		}
	}
	return 0, false
}
