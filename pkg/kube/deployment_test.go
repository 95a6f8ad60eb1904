package kube_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
	"github.com/aquasecurity/starboard-gate/pkg/ext/exttest"
	"github.com/aquasecurity/starboard-gate/pkg/kube"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

const nginxDeploymentAsJSON = `{
  "apiVersion": "apps/v1",
  "kind": "Deployment",
  "metadata": {"name": "nginx", "namespace": "default"},
  "spec": {
    "replicas": 3,
    "template": {
      "spec": {
        "initContainers": [{"name": "init", "image": "busybox:1.28"}],
        "containers": [
          {"name": "nginx", "image": "nginx:1.16"},
          {"name": "sidecar", "image": "quay.io/prometheus/node-exporter:v1.3.1"}
        ]
      }
    }
  }
}`

var nginxDeployment = kube.Object{
	Kind:      kube.KindDeployment,
	Name:      "nginx",
	Namespace: "default",
}

func TestContainerImagesFromJSON(t *testing.T) {
	t.Run("Should return images in manifest order", func(t *testing.T) {
		images, err := kube.ContainerImagesFromJSON([]byte(nginxDeploymentAsJSON))
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"nginx:1.16", "quay.io/prometheus/node-exporter:v1.3.1"}, images); diff != "" {
			t.Errorf("images mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should return empty list when there are no containers", func(t *testing.T) {
		images, err := kube.ContainerImagesFromJSON([]byte(`{"spec": {"template": {"spec": {"containers": []}}}}`))
		require.NoError(t, err)
		assert.Empty(t, images)
	})

	testCases := []struct {
		name  string
		input string
	}{
		{name: "Should return error when spec is missing", input: `{"kind": "Deployment"}`},
		{name: "Should return error when containers are missing", input: `{"spec": {"template": {"spec": {}}}}`},
		{name: "Should return error when containers is not a list", input: `{"spec": {"template": {"spec": {"containers": {}}}}}`},
		{name: "Should return error when container is not an object", input: `{"spec": {"template": {"spec": {"containers": ["nginx"]}}}}`},
		{name: "Should return error when image is missing", input: `{"spec": {"template": {"spec": {"containers": [{"name": "nginx"}]}}}}`},
		{name: "Should return error when image is not a string", input: `{"spec": {"template": {"spec": {"containers": [{"image": 42}]}}}}`},
		{name: "Should return error when document is null", input: `null`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := kube.ContainerImagesFromJSON([]byte(tc.input))
			assert.ErrorIs(t, err, kube.ErrMalformedDeployment)
		})
	}

	t.Run("Should return error when output is not JSON", func(t *testing.T) {
		_, err := kube.ContainerImagesFromJSON([]byte(`Error from server (NotFound)`))
		assert.Error(t, err)
	})
}

func TestKubectlInspector_GetContainerImages(t *testing.T) {
	t.Run("Should run kubectl get deployments", func(t *testing.T) {
		runner := exttest.NewRunner().
			On("kubectl get deployments nginx -n default -o json", nginxDeploymentAsJSON, nil)

		images, err := kube.NewKubectlInspector(runner, "").GetContainerImages(context.TODO(), nginxDeployment)
		require.NoError(t, err)
		assert.Equal(t, []string{"nginx:1.16", "quay.io/prometheus/node-exporter:v1.3.1"}, images)
		assert.Equal(t, []string{"kubectl get deployments nginx -n default -o json"}, runner.Calls)
	})

	t.Run("Should use configured executable", func(t *testing.T) {
		runner := exttest.NewRunner().
			On("/opt/bin/kubectl get deployments nginx -n default -o json", nginxDeploymentAsJSON, nil)

		_, err := kube.NewKubectlInspector(runner, "/opt/bin/kubectl").GetContainerImages(context.TODO(), nginxDeployment)
		require.NoError(t, err)
	})

	t.Run("Should put global flags before get subcommand", func(t *testing.T) {
		runner := exttest.NewRunner().
			On("kubectl --context=prod --kubeconfig=/etc/kube/prod.yaml get deployments nginx -n default -o json", nginxDeploymentAsJSON, nil)

		images, err := kube.NewKubectlInspector(runner, "", "--context=prod", "--kubeconfig=/etc/kube/prod.yaml").
			GetContainerImages(context.TODO(), nginxDeployment)
		require.NoError(t, err)
		assert.Len(t, images, 2)
	})

	t.Run("Should return error when kubectl fails", func(t *testing.T) {
		runner := exttest.NewRunner().
			On("kubectl get deployments nginx -n default -o json", "", &ext.CommandError{
				Name:     "kubectl",
				ExitCode: 1,
				Stderr:   `Error from server (NotFound): deployments.apps "nginx" not found`,
				Err:      errors.New("exit status 1"),
			})

		_, err := kube.NewKubectlInspector(runner, "").GetContainerImages(context.TODO(), nginxDeployment)
		require.Error(t, err)
		assert.EqualError(t, err, "getting Deployment default/nginx: running kubectl: exit code 1")
		var cmdErr *ext.CommandError
		require.True(t, errors.As(err, &cmdErr))
		assert.Contains(t, cmdErr.Stderr, "not found")
	})

	t.Run("Should return error when manifest is malformed", func(t *testing.T) {
		runner := exttest.NewRunner().
			On("kubectl get deployments nginx -n default -o json", `{"kind": "Deployment"}`, nil)

		_, err := kube.NewKubectlInspector(runner, "").GetContainerImages(context.TODO(), nginxDeployment)
		assert.ErrorIs(t, err, kube.ErrMalformedDeployment)
	})
}

func TestClientsetInspector_GetContainerImages(t *testing.T) {
	clientset := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "nginx",
			Namespace: "default",
		},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{Name: "nginx", Image: "nginx:1.16"},
						{Name: "redis", Image: "redis:5"},
					},
				},
			},
		},
	})
	inspector := kube.NewClientsetInspector(clientset)

	t.Run("Should return images in manifest order", func(t *testing.T) {
		images, err := inspector.GetContainerImages(context.TODO(), nginxDeployment)
		require.NoError(t, err)
		assert.Equal(t, []string{"nginx:1.16", "redis:5"}, images)
	})

	t.Run("Should return error when deployment does not exist", func(t *testing.T) {
		_, err := inspector.GetContainerImages(context.TODO(), kube.Object{
			Kind:      kube.KindDeployment,
			Name:      "wordpress",
			Namespace: "default",
		})
		require.Error(t, err)
		assert.True(t, apierrors.IsNotFound(err))
	})
}
